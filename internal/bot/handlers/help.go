package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/pptbot/pptbot/internal/generation"
	"github.com/pptbot/pptbot/internal/repository"
	"github.com/pptbot/pptbot/internal/state"
)

// HandleNeedHelp starts the assisted self-description flow.
func (f *Funnel) HandleNeedHelp(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if err := f.transition(ctx, userID, state.StateWaitingHelp); err != nil {
		return err
	}
	if err := f.transition(ctx, userID, state.StateWaitingHelpAnswer); err != nil {
		return err
	}

	return c.Edit(MsgHelpRequest)
}

// HandleContinueLearning skips the assisted flow and moves to lesson 4.
func (f *Funnel) HandleContinueLearning(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if err := f.transition(ctx, userID, state.StateContinueLearning); err != nil {
		return err
	}

	if err := c.Edit(MsgContinue); err != nil {
		f.log.Warn("failed to edit message", slog.Any("error", err))
	}

	return f.sendFillChannelStep(c, userID)
}

// ProcessHelpAnswer runs the self-description generation cycle on the user's
// answer (typed or transcribed).
func (f *Funnel) ProcessHelpAnswer(c telebot.Context, answer string) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if err := f.transition(ctx, userID, state.StateProcessingHelp); err != nil {
		return err
	}

	placeholder, err := c.Bot().Send(c.Recipient(), MsgProcessingHelp)
	if err != nil {
		return err
	}

	prompt, err := f.prompts.GetPrompt(ctx, repository.PromptOsebe)
	if err != nil && !errors.Is(err, repository.ErrPromptNotFound) {
		return err
	}
	if prompt == "" {
		prompt = "otvet_osebe"
	}
	prompt = strings.ReplaceAll(prompt, "otvet_osebe", answer)

	response, ok := f.generate(ctx, userID, prompt, answer, generation.KindOsebe)
	if !ok {
		// The attempt is discarded; the user answers again from scratch.
		f.setState(ctx, userID, state.StateWaitingHelpAnswer)
		_, editErr := c.Bot().Edit(placeholder, MsgHelpError)
		return editErr
	}

	if err := f.transition(ctx, userID, state.StateHelpCompleted); err != nil {
		return err
	}

	if _, err := c.Bot().Edit(placeholder, helpVariantsMessage(response)); err != nil {
		f.log.Warn("failed to edit placeholder", slog.Any("error", err))
	}

	return f.sendFillChannelStep(c, userID)
}

// sendFillChannelStep delivers lesson 4 and offers the 5-post creation loop.
func (f *Funnel) sendFillChannelStep(c telebot.Context, userID int64) error {
	ctx := context.Background()

	if err := c.Send(MsgFillChannelIntro); err != nil {
		return err
	}

	f.sendVideo(c, 4)

	if err := f.transition(ctx, userID, state.StateLearn4Sent); err != nil {
		return err
	}

	markup := f.kb.Column(
		[2]string{BtnWritePosts, CallbackWritePosts},
		[2]string{BtnWriteMyself, CallbackWriteMyself},
	)

	return c.Send(MsgLearn4Options, markup)
}
