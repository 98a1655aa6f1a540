package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/pptbot/pptbot/internal/state"
)

// askAboutChannel asks whether the user already has a channel.
func (f *Funnel) askAboutChannel(c telebot.Context, userID int64) error {
	ctx := context.Background()

	if err := f.transition(ctx, userID, state.StateChannelQuestion); err != nil {
		return err
	}

	markup := f.kb.Column(
		[2]string{BtnChannelCreated, CallbackChannelCreated},
		[2]string{BtnNeedCreateChannel, CallbackNeedCreateChannel},
	)

	return c.Send(MsgChannelQuestion, markup)
}

// HandleNeedCreateChannel walks the user through creating a channel.
func (f *Funnel) HandleNeedCreateChannel(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if err := f.transition(ctx, userID, state.StateChannelCreating); err != nil {
		return err
	}

	if err := c.Edit(MsgChannelCreationIntro); err != nil {
		f.log.Warn("failed to edit message", slog.Any("error", err))
	}

	f.sendVideo(c, 2)

	if err := c.Send(MsgChannelCreationSteps); err != nil {
		return err
	}

	markup := f.kb.Single(BtnChannelCreated, CallbackChannelCreated)
	return c.Send(MsgChannelCreationConfirm, markup)
}

// HandleChannelCreated confirms the channel and delivers lesson 3.
func (f *Funnel) HandleChannelCreated(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if err := f.transition(ctx, userID, state.StateChannelCreated); err != nil {
		return err
	}

	if err := c.Edit(MsgChannelReady); err != nil {
		f.log.Warn("failed to edit message", slog.Any("error", err))
	}

	return f.sendLearn3(c, userID)
}

func (f *Funnel) sendLearn3(c telebot.Context, userID int64) error {
	ctx := context.Background()

	f.sendVideo(c, 3)

	if err := f.transition(ctx, userID, state.StateLearn3Sent); err != nil {
		return err
	}

	markup := f.kb.Column(
		[2]string{BtnNeedHelp, CallbackNeedHelp},
		[2]string{BtnContinue, CallbackContinueLearning},
	)

	return c.Send(MsgLearn3Options, markup)
}
