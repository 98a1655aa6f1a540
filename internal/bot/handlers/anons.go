package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/pptbot/pptbot/internal/generation"
	"github.com/pptbot/pptbot/internal/repository"
	"github.com/pptbot/pptbot/internal/state"
)

// startAnonsFlow delivers lesson 6 and offers the announcement creation.
func (f *Funnel) startAnonsFlow(c telebot.Context, userID int64) error {
	ctx := context.Background()

	if err := c.Send(MsgChannelReadyNeedAudience); err != nil {
		return err
	}

	f.sendVideo(c, 6)

	if err := f.transition(ctx, userID, state.StateLearn6Sent); err != nil {
		return err
	}

	markup := f.kb.Column(
		[2]string{BtnWriteAnonsMyself, CallbackWriteAnonsMyself},
		[2]string{BtnHelpWriteAnons, CallbackHelpWriteAnons},
	)

	return c.Send(MsgLearn6Options, markup)
}

// HandleWriteAnonsMyself skips the announcement help.
func (f *Funnel) HandleWriteAnonsMyself(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if err := f.transition(ctx, userID, state.StateWriteAnonsMyself); err != nil {
		return err
	}

	if err := c.Edit(MsgWriteAnonsMyself); err != nil {
		f.log.Warn("failed to edit message", slog.Any("error", err))
	}

	return f.startSalesFlow(c, userID)
}

// HandleHelpWriteAnons starts the two-question announcement cycle.
func (f *Funnel) HandleHelpWriteAnons(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if err := f.transition(ctx, userID, state.StateCreatingAnons); err != nil {
		return err
	}

	if err := c.Edit(MsgStartAnons); err != nil {
		f.log.Warn("failed to edit message", slog.Any("error", err))
	}

	return f.askAnonsQuestion(c, userID, 1)
}

func (f *Funnel) askAnonsQuestion(c telebot.Context, userID int64, questionNum int) error {
	var question string
	switch questionNum {
	case 1:
		question = MsgAnonsQuestion1
	case 2:
		question = MsgAnonsQuestion2
	default:
		return nil
	}

	f.setState(context.Background(), userID, state.StateAnsweringAnonsQuestions)

	return c.Send(question)
}

// ProcessAnonsAnswer stores an announcement answer; the second one triggers
// generation.
func (f *Funnel) ProcessAnonsAnswer(c telebot.Context, answer string) error {
	ctx := context.Background()
	userID := c.Sender().ID

	user, err := f.users.FindByTelegramID(ctx, userID)
	if err != nil {
		return err
	}

	if !user.Anons1.Valid || user.Anons1.String == "" {
		if err := f.users.SaveAnonsAnswer(ctx, userID, 1, answer); err != nil {
			return err
		}
		return f.askAnonsQuestion(c, userID, 2)
	}

	if err := f.users.SaveAnonsAnswer(ctx, userID, 2, answer); err != nil {
		return err
	}

	return f.generateAnons(c, userID)
}

func (f *Funnel) generateAnons(c telebot.Context, userID int64) error {
	ctx := context.Background()

	if err := f.transition(ctx, userID, state.StateProcessingAnons); err != nil {
		return err
	}

	placeholder, err := c.Bot().Send(c.Recipient(), MsgProcessingAnons)
	if err != nil {
		return err
	}

	user, err := f.users.FindByTelegramID(ctx, userID)
	if err != nil {
		return err
	}

	prompt, err := f.prompts.GetPrompt(ctx, repository.PromptAnons)
	if err != nil {
		f.log.Warn("anons prompt missing", slog.Any("error", err))
	}
	prompt = strings.ReplaceAll(prompt, "anons1", user.Anons1.String)
	prompt = strings.ReplaceAll(prompt, "anons2", user.Anons2.String)

	answerLog := fmt.Sprintf("anons1: %s, anons2: %s", user.Anons1.String, user.Anons2.String)
	response, ok := f.generate(ctx, userID, prompt, answerLog, generation.KindAnons)
	if !ok {
		// Discard the pair and ask again from the first question.
		if err := f.users.SaveAnonsAnswer(ctx, userID, 1, ""); err != nil {
			return err
		}
		if _, editErr := c.Bot().Edit(placeholder, MsgAnonsError); editErr != nil {
			f.log.Warn("failed to edit placeholder", slog.Any("error", editErr))
		}
		return f.askAnonsQuestion(c, userID, 1)
	}

	if err := f.users.SaveAnonsText(ctx, userID, response); err != nil {
		return err
	}
	if err := f.transition(ctx, userID, state.StateAnonsCompleted); err != nil {
		return err
	}

	if _, err := c.Bot().Edit(placeholder, anonsReadyMessage(response)); err != nil {
		f.log.Warn("failed to edit placeholder", slog.Any("error", err))
	}

	return f.startSalesFlow(c, userID)
}
