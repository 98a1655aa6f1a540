package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/pptbot/pptbot/internal/state"
)

// sendVideoAndButton delivers the first lesson, arms the reminder sequence,
// and waits for the "watched" confirmation.
func (f *Funnel) sendVideoAndButton(c telebot.Context, userID int64) error {
	ctx := context.Background()

	f.sendVideo(c, 1)

	markup := f.kb.Single(BtnVideoWatched, CallbackVideoWatched)
	if err := c.Send(MsgVideoSent, markup); err != nil {
		return err
	}

	if err := f.transition(ctx, userID, state.StateVideoSent); err != nil {
		return err
	}

	if err := f.users.MarkVideoSent(ctx, userID); err != nil {
		f.log.Error("failed to record video delivery", slog.Int64("telegram_id", userID), slog.Any("error", err))
	}

	if err := f.reminders.ScheduleReminders(ctx, userID); err != nil {
		f.log.Error("failed to schedule reminders", slog.Int64("telegram_id", userID), slog.Any("error", err))
	}

	return nil
}

// HandleVideoWatched confirms the first lesson, cancels the pending nudges,
// and moves on to the channel question.
func (f *Funnel) HandleVideoWatched(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if err := f.transition(ctx, userID, state.StateVideoWatched); err != nil {
		return err
	}

	if err := f.reminders.CancelReminders(ctx, userID); err != nil {
		f.log.Error("failed to cancel reminders", slog.Int64("telegram_id", userID), slog.Any("error", err))
	}

	if err := c.Edit(MsgVideoWatched); err != nil {
		f.log.Warn("failed to edit message", slog.Any("error", err))
	}

	return f.askAboutChannel(c, userID)
}
