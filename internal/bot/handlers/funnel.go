package handlers

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/pptbot/pptbot/internal/bot/keyboard"
	"github.com/pptbot/pptbot/internal/channel"
	"github.com/pptbot/pptbot/internal/generation"
	"github.com/pptbot/pptbot/internal/jobs"
	"github.com/pptbot/pptbot/internal/repository"
	"github.com/pptbot/pptbot/internal/state"
	"github.com/pptbot/pptbot/internal/voice"
	"github.com/pptbot/pptbot/pkg/config"
)

// Generator runs one generation request/reply cycle against an external
// workflow endpoint.
type Generator interface {
	Generate(ctx context.Context, userID int64, text, requestID string, kind generation.Kind) (string, error)
}

// Funnel carries every dependency the stage handlers need. All stage handlers
// are methods on it; the bot router binds them to commands, callbacks, and
// states.
type Funnel struct {
	users       repository.UserRepository
	prompts     repository.PromptRepository
	requests    repository.RequestRepository
	fsm         state.StateMachine
	generator   Generator
	reminders   jobs.ReminderScheduler
	transcriber voice.Transcriber
	channels    channel.Service
	media       config.MediaConfig
	kb          *keyboard.Builder
	log         *slog.Logger

	// sleep is swapped out in tests to avoid real delays.
	sleep func(d time.Duration)
}

// NewFunnel wires the funnel handler set.
func NewFunnel(
	users repository.UserRepository,
	prompts repository.PromptRepository,
	requests repository.RequestRepository,
	fsm state.StateMachine,
	generator Generator,
	reminders jobs.ReminderScheduler,
	transcriber voice.Transcriber,
	channels channel.Service,
	media config.MediaConfig,
	log *slog.Logger,
) *Funnel {
	if log == nil {
		log = slog.Default()
	}

	return &Funnel{
		users:       users,
		prompts:     prompts,
		requests:    requests,
		fsm:         fsm,
		generator:   generator,
		reminders:   reminders,
		transcriber: transcriber,
		channels:    channels,
		media:       media,
		kb:          keyboard.NewBuilder(),
		log:         log,
		sleep:       time.Sleep,
	}
}

// sendVideo delivers a lesson video if the file exists. A missing or failed
// video never blocks the funnel.
func (f *Funnel) sendVideo(c telebot.Context, lesson int) {
	path := f.media.Video(lesson)
	if _, err := os.Stat(path); err != nil {
		f.log.Warn("lesson video missing", slog.Int("lesson", lesson), slog.String("path", path))
		return
	}

	video := &telebot.Video{File: telebot.FromDisk(path), Streaming: true}
	if err := c.Send(video); err != nil {
		f.log.Error("failed to send lesson video",
			slog.Int("lesson", lesson),
			slog.Any("error", err))
	}
}

// generate runs one audited generation cycle and records the outcome.
func (f *Funnel) generate(ctx context.Context, userID int64, prompt, userAnswer string, kind generation.Kind) (string, bool) {
	requestID := generation.NewRequestID()

	if err := f.requests.Create(ctx, userID, requestID, userAnswer); err != nil {
		// Audit row failure is not a reason to block the user.
		f.log.Warn("generation audit insert failed", slog.String("request_id", requestID), slog.Any("error", err))
	}

	response, genErr := f.generator.Generate(ctx, userID, prompt, requestID, kind)

	status := repository.RequestStatusCompleted
	switch {
	case errors.Is(genErr, generation.ErrReplyTimeout):
		status = repository.RequestStatusTimeout
	case genErr != nil:
		status = repository.RequestStatusFailed
	}
	if err := f.requests.SetStatus(ctx, requestID, status); err != nil {
		f.log.Warn("generation audit update failed", slog.String("request_id", requestID), slog.Any("error", err))
	}

	return response, genErr == nil
}

func (f *Funnel) setState(ctx context.Context, userID int64, s state.State) {
	if err := f.fsm.SetState(ctx, userID, s); err != nil {
		f.log.Error("failed to set state",
			slog.Int64("telegram_id", userID),
			slog.String("state", string(s)),
			slog.Any("error", err))
	}
}

func (f *Funnel) transition(ctx context.Context, userID int64, s state.State) error {
	return f.fsm.TransitionTo(ctx, userID, s)
}
