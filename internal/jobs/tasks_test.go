package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReminderTaskID(t *testing.T) {
	tests := []struct {
		telegramID int64
		sequence   int
		want       string
	}{
		{telegramID: 42, sequence: 1, want: "reminder:1:42"},
		{telegramID: 42, sequence: 3, want: "reminder:3:42"},
		{telegramID: 1234567890, sequence: 2, want: "reminder:2:1234567890"},
	}

	for _, tc := range tests {
		if got := ReminderTaskID(tc.telegramID, tc.sequence); got != tc.want {
			t.Errorf("ReminderTaskID(%d, %d) = %q, want %q", tc.telegramID, tc.sequence, got, tc.want)
		}
	}
}

func TestNewReminderTask(t *testing.T) {
	task, err := NewReminderTask(42, 2)
	assert.NoError(t, err)
	assert.Equal(t, TaskTypeReminder, task.Type())

	var payload ReminderPayload
	assert.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, int64(42), payload.TelegramID)
	assert.Equal(t, 2, payload.Sequence)
}

type mockManager struct {
	mock.Mock
}

func (m *mockManager) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)

	if info := args.Get(0); info != nil {
		return info.(*asynq.TaskInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockManager) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestScheduleReminders_EnqueuesAllNudges(t *testing.T) {
	mgr := new(mockManager)
	mgr.On("Enqueue", mock.Anything, mock.Anything, mock.Anything).
		Return(&asynq.TaskInfo{}, nil).
		Times(ReminderSequence)

	s := NewReminderScheduler(mgr, nil, [ReminderSequence]time.Duration{
		time.Minute, 2 * time.Minute, 3 * time.Minute,
	}, testLogger())

	err := s.ScheduleReminders(context.Background(), 42)
	assert.NoError(t, err)
	mgr.AssertExpectations(t)
}

func TestScheduleReminders_TaskIDConflictIsNoOp(t *testing.T) {
	// Re-sending the video must not duplicate already-scheduled nudges.
	mgr := new(mockManager)
	mgr.On("Enqueue", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, asynq.ErrTaskIDConflict).
		Times(ReminderSequence)

	s := NewReminderScheduler(mgr, nil, [ReminderSequence]time.Duration{
		time.Minute, 2 * time.Minute, 3 * time.Minute,
	}, testLogger())

	err := s.ScheduleReminders(context.Background(), 42)
	assert.NoError(t, err)
	mgr.AssertExpectations(t)
}

func TestScheduleReminders_EnqueueFailureStops(t *testing.T) {
	enqueueErr := errors.New("redis down")

	mgr := new(mockManager)
	mgr.On("Enqueue", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, enqueueErr).
		Once()

	s := NewReminderScheduler(mgr, nil, [ReminderSequence]time.Duration{
		time.Minute, 2 * time.Minute, 3 * time.Minute,
	}, testLogger())

	err := s.ScheduleReminders(context.Background(), 42)
	assert.ErrorIs(t, err, enqueueErr)
	mgr.AssertExpectations(t)
}
