// Package jobs runs delayed funnel reminders on top of an asynq queue.
package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeReminder = "funnel:reminder"
)

const (
	QueueReminders = "reminders"
)

// ReminderSequence counts the three nudges sent after the intro video.
const ReminderSequence = 3

// ReminderPayload identifies which nudge to deliver to which user.
type ReminderPayload struct {
	TelegramID int64 `json:"telegram_id"`
	Sequence   int   `json:"sequence"`
}

// ReminderTaskID derives the stable task identifier, so a scheduled reminder
// can be deleted by reconstructing its id.
func ReminderTaskID(telegramID int64, sequence int) string {
	return fmt.Sprintf("reminder:%d:%d", sequence, telegramID)
}

// NewReminderTask builds a reminder task for one user and nudge number.
func NewReminderTask(telegramID int64, sequence int) (*asynq.Task, error) {
	payload, err := json.Marshal(ReminderPayload{TelegramID: telegramID, Sequence: sequence})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeReminder, payload, asynq.Queue(QueueReminders)), nil
}
