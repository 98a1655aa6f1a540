package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/pptbot/pptbot/internal/domain"
	"github.com/pptbot/pptbot/internal/generation"
	"github.com/pptbot/pptbot/internal/state"
)

// HandleWriteMyself lets the user write the channel posts on their own and
// jumps to the publishing stage.
func (f *Funnel) HandleWriteMyself(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if err := f.transition(ctx, userID, state.StateWriteMyself); err != nil {
		return err
	}

	if err := c.Edit(MsgWriteMyself); err != nil {
		f.log.Warn("failed to edit message", slog.Any("error", err))
	}

	return f.startPublishIntro(c, userID)
}

// HandleWritePosts enters the 5-post creation loop.
func (f *Funnel) HandleWritePosts(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if err := f.transition(ctx, userID, state.StateCreatingPosts); err != nil {
		return err
	}

	progress := domain.PostProgress{PostNumber: 1, QuestionNumber: 1, Attempt: 1}
	if err := f.users.SavePostProgress(ctx, userID, progress); err != nil {
		return err
	}

	if err := c.Edit(MsgStartCreatingPosts); err != nil {
		f.log.Warn("failed to edit message", slog.Any("error", err))
	}

	return f.askPostQuestion(c, userID, 1, 1)
}

// askPostQuestion shows the topic (before the first question) and asks one of
// the three questions for the given post.
func (f *Funnel) askPostQuestion(c telebot.Context, userID int64, postNum, questionNum int) error {
	ctx := context.Background()

	tpl, err := f.prompts.GetPostTemplate(ctx, postNum)
	if err != nil {
		return fmt.Errorf("post template %d: %w", postNum, err)
	}

	if questionNum == 1 {
		if err := c.Send(postTopicMessage(postNum, tpl.Topic)); err != nil {
			return err
		}
	}

	f.setState(ctx, userID, state.StateAnsweringPostQuestions)

	return c.Send(postQuestionMessage(questionNum, tpl.Questions[questionNum-1]))
}

// ProcessPostAnswer stores one answer and either asks the next question or
// triggers generation after the third.
func (f *Funnel) ProcessPostAnswer(c telebot.Context, answer string) error {
	ctx := context.Background()
	userID := c.Sender().ID

	progress, err := f.users.GetPostProgress(ctx, userID)
	if err != nil {
		return err
	}

	if progress.Answers == nil {
		progress.Answers = make(map[string]string)
	}
	progress.Answers[fmt.Sprintf("answer_%d", progress.QuestionNumber)] = answer

	if progress.QuestionNumber >= state.QuestionsPerPost {
		if err := f.users.SavePostProgress(ctx, userID, *progress); err != nil {
			return err
		}
		return f.generatePost(c, userID, progress)
	}

	progress.QuestionNumber++
	if err := f.users.SavePostProgress(ctx, userID, *progress); err != nil {
		return err
	}

	return f.askPostQuestion(c, userID, progress.PostNumber, progress.QuestionNumber)
}

// generatePost runs the generation cycle for the current post. Failure or
// timeout restarts the post from its first question.
func (f *Funnel) generatePost(c telebot.Context, userID int64, progress *domain.PostProgress) error {
	ctx := context.Background()

	if err := f.transition(ctx, userID, state.StateProcessingPost); err != nil {
		return err
	}

	placeholder, err := c.Bot().Send(c.Recipient(), MsgProcessingPost)
	if err != nil {
		return err
	}

	tpl, err := f.prompts.GetPostTemplate(ctx, progress.PostNumber)
	if err != nil {
		return err
	}

	prompt := tpl.Prompt
	for i := 1; i <= state.QuestionsPerPost; i++ {
		prompt = strings.ReplaceAll(prompt, fmt.Sprintf("vopros_%d", i), progress.Answers[fmt.Sprintf("answer_%d", i)])
	}

	response, ok := f.generate(ctx, userID, prompt, fmt.Sprint(progress.Answers), generation.KindPost)
	if !ok {
		return f.restartPostQuestions(c, userID, progress, placeholder, MsgPostError)
	}

	return f.showPostResult(c, userID, progress, response, placeholder)
}

func (f *Funnel) restartPostQuestions(c telebot.Context, userID int64, progress *domain.PostProgress, placeholder *telebot.Message, errMsg string) error {
	ctx := context.Background()

	reset := domain.PostProgress{PostNumber: progress.PostNumber, QuestionNumber: 1, Attempt: progress.Attempt}
	if err := f.users.SavePostProgress(ctx, userID, reset); err != nil {
		return err
	}

	if _, err := c.Bot().Edit(placeholder, errMsg); err != nil {
		f.log.Warn("failed to edit placeholder", slog.Any("error", err))
	}

	return f.askPostQuestion(c, userID, progress.PostNumber, 1)
}

// showPostResult presents the generated post. At the attempt cap the result is
// final and the loop auto-advances.
func (f *Funnel) showPostResult(c telebot.Context, userID int64, progress *domain.PostProgress, postText string, placeholder *telebot.Message) error {
	ctx := context.Background()

	if err := f.transition(ctx, userID, state.StatePostResultShown); err != nil {
		return err
	}

	if progress.Attempt >= state.MaxPostAttempts {
		if _, err := c.Bot().Edit(placeholder, postResultFinalMessage(postText)); err != nil {
			f.log.Warn("failed to edit placeholder", slog.Any("error", err))
		}
		return f.advanceToNextPost(c, userID, progress.PostNumber)
	}

	markup := f.kb.Column(
		[2]string{BtnRewritePost, CallbackRewritePost},
		[2]string{BtnNextPost, CallbackNextPost},
	)

	_, err := c.Bot().Edit(placeholder, postResultMessage(postText), markup)
	return err
}

// HandleRewritePost restarts the current post's questions on a new attempt.
// Clicks past the attempt cap advance instead.
func (f *Funnel) HandleRewritePost(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	progress, err := f.users.GetPostProgress(ctx, userID)
	if err != nil {
		return err
	}

	if progress.Attempt >= state.MaxPostAttempts {
		return f.advanceToNextPost(c, userID, progress.PostNumber)
	}

	reset := domain.PostProgress{PostNumber: progress.PostNumber, QuestionNumber: 1, Attempt: progress.Attempt + 1}
	if err := f.users.SavePostProgress(ctx, userID, reset); err != nil {
		return err
	}

	if err := c.Edit(MsgRewritePost); err != nil {
		f.log.Warn("failed to edit message", slog.Any("error", err))
	}

	return f.askPostQuestion(c, userID, progress.PostNumber, 1)
}

// HandleNextPost moves to the next post or completes the loop.
func (f *Funnel) HandleNextPost(c telebot.Context) error {
	userID := c.Sender().ID

	progress, err := f.users.GetPostProgress(context.Background(), userID)
	if err != nil {
		return err
	}

	return f.advanceToNextPost(c, userID, progress.PostNumber)
}

func (f *Funnel) advanceToNextPost(c telebot.Context, userID int64, currentPost int) error {
	ctx := context.Background()

	if currentPost >= state.TotalPosts {
		if err := f.transition(ctx, userID, state.StateAllPostsCompleted); err != nil {
			return err
		}
		if err := c.Send(MsgAllPostsCompleted); err != nil {
			return err
		}
		return f.startPublishIntro(c, userID)
	}

	next := currentPost + 1
	reset := domain.PostProgress{PostNumber: next, QuestionNumber: 1, Attempt: 1}
	if err := f.users.SavePostProgress(ctx, userID, reset); err != nil {
		return err
	}

	if err := c.Send(nextPostMessage(next)); err != nil {
		return err
	}

	return f.askPostQuestion(c, userID, next, 1)
}
