// Package voice converts Telegram voice messages to text via Whisper.
package voice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	apperrors "github.com/pptbot/pptbot/internal/errors"
)

// Transcriber turns an audio stream into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
}

type whisperTranscriber struct {
	client  openai.Client
	breaker *apperrors.CircuitBreaker
	log     *slog.Logger
}

// NewWhisperTranscriber builds a Transcriber backed by the OpenAI Whisper API.
// Calls go through a circuit breaker: a run of API failures fails subsequent
// voice messages fast instead of holding every handler for the full timeout.
func NewWhisperTranscriber(apiKey string, log *slog.Logger) Transcriber {
	if log == nil {
		log = slog.Default()
	}

	return &whisperTranscriber{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		breaker: apperrors.NewCircuitBreaker(),
		log:     log,
	}
}

// Transcribe sends the voice recording to Whisper and returns the recognized
// text. The audience answers in Russian, so the language hint is fixed.
func (t *whisperTranscriber) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	var text string

	err := t.breaker.Call(func() error {
		resp, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
			Model:    openai.AudioModelWhisper1,
			File:     openai.File(audio, "voice.ogg", "audio/ogg"),
			Language: openai.String("ru"),
		})
		if err != nil {
			return err
		}

		text = strings.TrimSpace(resp.Text)
		return nil
	})
	if err != nil {
		t.log.ErrorContext(ctx, "transcription failed", slog.Any("error", err))
		return "", fmt.Errorf("transcribe voice: %w", err)
	}

	if text == "" {
		return "", fmt.Errorf("transcription returned empty text")
	}

	return text, nil
}
