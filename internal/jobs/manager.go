package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pptbot/pptbot/pkg/metrics"
)

// Manager describes the minimal queue operations needed by the application.
type Manager interface {
	Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type manager struct {
	client *asynq.Client
	log    *slog.Logger
}

// NewManager builds a Manager backed by an asynq client.
func NewManager(redisOpt asynq.RedisConnOpt, log *slog.Logger) Manager {
	client := asynq.NewClient(redisOpt)

	return &manager{
		client: client,
		log:    log,
	}
}

func (m *manager) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	return m.client.EnqueueContext(ctx, task, opts...)
}

func (m *manager) Close() error {
	return m.client.Close()
}

// ReminderScheduler schedules and cancels the three post-video nudges as a
// group keyed by the user's Telegram id.
type ReminderScheduler interface {
	ScheduleReminders(ctx context.Context, telegramID int64) error
	CancelReminders(ctx context.Context, telegramID int64) error
}

type reminderScheduler struct {
	manager   Manager
	inspector *asynq.Inspector
	delays    [ReminderSequence]time.Duration
	log       *slog.Logger
}

// NewReminderScheduler builds a scheduler delivering nudges after the three
// given delays.
func NewReminderScheduler(manager Manager, inspector *asynq.Inspector, delays [ReminderSequence]time.Duration, log *slog.Logger) ReminderScheduler {
	if log == nil {
		log = slog.Default()
	}

	return &reminderScheduler{
		manager:   manager,
		inspector: inspector,
		delays:    delays,
		log:       log,
	}
}

// ScheduleReminders enqueues all three nudges at once. Deterministic task ids
// make rescheduling after a repeated video send a no-op instead of a
// duplicate.
func (s *reminderScheduler) ScheduleReminders(ctx context.Context, telegramID int64) error {
	for i, delay := range s.delays {
		sequence := i + 1

		task, err := NewReminderTask(telegramID, sequence)
		if err != nil {
			return fmt.Errorf("build reminder task: %w", err)
		}

		_, err = s.manager.Enqueue(ctx, task,
			asynq.ProcessIn(delay),
			asynq.TaskID(ReminderTaskID(telegramID, sequence)),
		)
		if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
			return fmt.Errorf("enqueue reminder %d: %w", sequence, err)
		}
	}

	metrics.RecordReminder("scheduled")

	s.log.Info("reminders scheduled", slog.Int64("telegram_id", telegramID))

	return nil
}

// CancelReminders removes any not-yet-delivered nudges for the user. Missing
// tasks are fine: they either fired already or were cancelled before.
func (s *reminderScheduler) CancelReminders(ctx context.Context, telegramID int64) error {
	for sequence := 1; sequence <= ReminderSequence; sequence++ {
		id := ReminderTaskID(telegramID, sequence)

		err := s.inspector.DeleteTask(QueueReminders, id)
		if err != nil && !errors.Is(err, asynq.ErrTaskNotFound) && !errors.Is(err, asynq.ErrQueueNotFound) {
			return fmt.Errorf("delete reminder %d: %w", sequence, err)
		}
	}

	metrics.RecordReminder("cancelled")

	s.log.Info("reminders cancelled", slog.Int64("telegram_id", telegramID))

	return nil
}
