// Package metrics exposes prometheus collectors for the funnel bot.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pptbot/pptbot/internal/state"
)

var (
	updatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Total number of handled Telegram updates labeled by kind and status",
		},
		[]string{"kind", "status"},
	)
	updateDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_update_duration_seconds",
			Help:    "Duration of update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_state_transitions_total",
			Help: "Total number of funnel state transitions",
		},
		[]string{"from", "to"},
	)
	generationSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_sends_total",
			Help: "Outbound generation requests labeled by target kind and outcome",
		},
		[]string{"kind", "status"},
	)
	generationAwaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_await_seconds",
			Help:    "Time spent waiting for a correlated generation reply",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 180},
		},
		[]string{"kind", "status"},
	)
	webhookRepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_replies_total",
			Help: "Inbound generation replies labeled by target kind and match result",
		},
		[]string{"kind", "matched"},
	)
	pendingRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "generation_pending_requests",
			Help: "Current number of in-flight generation requests",
		},
	)
	remindersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_total",
			Help: "Reminder task outcomes",
		},
		[]string{"status"},
	)
)

func init() {
	state.RegisterTransitionRecorder(RecordStateTransition)
}

// RecordUpdate increments update counters and records handling duration.
func RecordUpdate(kind, status string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	updatesTotal.WithLabelValues(kind, status).Inc()
	updateDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordStateTransition tracks funnel transitions.
func RecordStateTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordGenerationSend tracks an outbound generation request outcome.
func RecordGenerationSend(kind, status string) {
	generationSendsTotal.WithLabelValues(kind, status).Inc()
}

// RecordGenerationAwait tracks how long a handler waited for a correlated reply.
func RecordGenerationAwait(kind, status string, duration time.Duration) {
	generationAwaitSeconds.WithLabelValues(kind, status).Observe(duration.Seconds())
}

// RecordWebhookReply tracks an inbound reply and whether a waiter matched it.
func RecordWebhookReply(kind string, matched bool) {
	label := "no"
	if matched {
		label = "yes"
	}

	webhookRepliesTotal.WithLabelValues(kind, label).Inc()
}

// SetPendingRequests publishes the in-flight request count.
func SetPendingRequests(n int) {
	pendingRequests.Set(float64(n))
}

// RecordReminder tracks one reminder task outcome.
func RecordReminder(status string) {
	remindersTotal.WithLabelValues(status).Inc()
}
