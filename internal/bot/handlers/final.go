package handlers

import (
	"context"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/pptbot/pptbot/internal/state"
)

// showFinalStep sends the closing message sequence and completes the funnel.
func (f *Funnel) showFinalStep(c telebot.Context, userID int64) error {
	ctx := context.Background()

	if err := f.transition(ctx, userID, state.StateFinalStep); err != nil {
		return err
	}

	if err := c.Send(MsgFinal1); err != nil {
		return err
	}
	f.sleep(2 * time.Second)

	if err := c.Send(MsgFinal2); err != nil {
		return err
	}
	f.sleep(2 * time.Second)

	if err := c.Send(MsgFinal3); err != nil {
		return err
	}

	return f.transition(ctx, userID, state.StateCompleted)
}
