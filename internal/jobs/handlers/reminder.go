// Package handlers contains asynq task handlers.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/pptbot/pptbot/internal/jobs"
	"github.com/pptbot/pptbot/internal/state"
	"github.com/pptbot/pptbot/pkg/metrics"
)

// ReminderNotifier delivers one reminder message to the user.
type ReminderNotifier interface {
	SendReminder(ctx context.Context, telegramID int64, sequence int) error
}

// ReminderHandler fires a scheduled nudge if the user is still waiting on the
// intro video.
type ReminderHandler struct {
	machine  state.StateMachine
	notifier ReminderNotifier
	log      *slog.Logger
}

func NewReminderHandler(machine state.StateMachine, notifier ReminderNotifier, log *slog.Logger) *ReminderHandler {
	if log == nil {
		log = slog.Default()
	}

	return &ReminderHandler{
		machine:  machine,
		notifier: notifier,
		log:      log,
	}
}

func (h *ReminderHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.ReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.ErrorContext(ctx, "reminder: failed to decode payload",
			slog.String("task_type", t.Type()),
			slog.String("error", err.Error()))
		return err
	}

	log := h.log.With(
		slog.Int64("telegram_id", payload.TelegramID),
		slog.Int("sequence", payload.Sequence),
	)

	// The user may have pressed the button between scheduling and delivery.
	current, err := h.machine.GetState(ctx, payload.TelegramID)
	if err != nil {
		log.ErrorContext(ctx, "reminder: failed to load state", slog.Any("error", err))
		return err
	}

	if current != state.StateVideoSent {
		log.InfoContext(ctx, "reminder: skipped, user moved on", slog.String("state", string(current)))
		metrics.RecordReminder("skipped")
		return nil
	}

	if err := h.notifier.SendReminder(ctx, payload.TelegramID, payload.Sequence); err != nil {
		log.ErrorContext(ctx, "reminder: failed to deliver", slog.Any("error", err))
		return err
	}

	metrics.RecordReminder("sent")

	log.InfoContext(ctx, "reminder delivered")

	return nil
}
