package middleware

import (
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/pptbot/pptbot/internal/bot/handlers"
	"github.com/pptbot/pptbot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordUpdate(updateKind(c), status, time.Since(start))

		return err
	}
}

func updateKind(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil {
		return "callback"
	}

	if msg := c.Message(); msg != nil && msg.Voice != nil {
		return "voice"
	}

	if text := c.Text(); text != "" {
		return "message"
	}

	return "unknown"
}
