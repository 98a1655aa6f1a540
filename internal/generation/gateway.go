// Package generation sends content-generation requests to the external
// workflow engine and awaits their asynchronous, webhook-delivered replies.
package generation

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/pptbot/pptbot/internal/correlation"
	"github.com/pptbot/pptbot/pkg/config"
	"github.com/pptbot/pptbot/pkg/metrics"
)

// Kind selects one of the configured generation endpoints.
type Kind string

const (
	KindOsebe    Kind = "osebe"    // self-description variants
	KindPost     Kind = "post"     // content-post creation
	KindBluebutt Kind = "bluebutt" // intro post with a button
	KindAnons    Kind = "anons"    // announcement
	KindProdaj   Kind = "prodaj"   // sales post
)

// ErrSendFailed reports that the outbound request never reached the workflow
// endpoint, whether from an unknown kind, a transport error, or a bad status.
var ErrSendFailed = errors.New("generation: send failed")

// ErrReplyTimeout reports that the wait window closed before a correlated
// reply arrived.
var ErrReplyTimeout = correlation.ErrTimeout

// Request is the outbound body posted to a workflow endpoint.
type Request struct {
	TelegramID int64  `json:"telegram_id"`
	Text       string `json:"text"`
	RequestID  string `json:"request_id"`
}

// Gateway posts generation requests and exposes the blocking await for their
// correlated replies. It performs no automatic retries: a failed send is a
// user-facing decision (the "rewrite" button), not a transport concern.
type Gateway struct {
	client *resty.Client
	store  *correlation.Store
	log    *slog.Logger

	mu           sync.RWMutex
	endpoints    map[Kind]string
	replyTimeout time.Duration
}

// NewGateway builds a Gateway from the generation config section.
func NewGateway(cfg config.GenerationConfig, store *correlation.Store, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}

	client := resty.New().
		SetTimeout(cfg.SendTimeout).
		SetHeader("Content-Type", "application/json")

	return &Gateway{
		client:       client,
		store:        store,
		log:          log,
		endpoints:    endpointsFrom(cfg),
		replyTimeout: cfg.ReplyTimeout,
	}
}

// NewRequestID generates a fresh correlation identifier.
func NewRequestID() string {
	return uuid.NewString()
}

// ReplyTimeout returns the configured correlation wait window.
func (g *Gateway) ReplyTimeout() time.Duration {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.replyTimeout
}

// Reconfigure swaps the endpoint table, used by the config hot-reload hook.
func (g *Gateway) Reconfigure(cfg config.GenerationConfig) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.endpoints = endpointsFrom(cfg)
	if cfg.ReplyTimeout > 0 {
		g.replyTimeout = cfg.ReplyTimeout
	}
}

// Send posts one generation request to the endpoint configured for kind.
// It reports success as a boolean: an unknown kind, a missing endpoint, a
// transport error, and a non-200 status are all send failures, each logged with
// enough context to diagnose without a retry.
func (g *Gateway) Send(ctx context.Context, userID int64, text, requestID string, kind Kind) bool {
	log := g.log.With(
		slog.Int64("user_id", userID),
		slog.String("request_id", requestID),
		slog.String("kind", string(kind)),
	)

	url, ok := g.endpoint(kind)
	if !ok {
		log.Error("unknown generation target kind")
		metrics.RecordGenerationSend(string(kind), "unknown_kind")
		return false
	}
	if url == "" {
		log.Error("generation endpoint not configured")
		metrics.RecordGenerationSend(string(kind), "unconfigured")
		return false
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(Request{TelegramID: userID, Text: text, RequestID: requestID}).
		Post(url)
	if err != nil {
		log.Error("generation send failed", slog.String("endpoint", url), slog.Any("error", err))
		metrics.RecordGenerationSend(string(kind), "error")
		return false
	}

	if resp.StatusCode() != http.StatusOK {
		log.Error("generation endpoint returned non-200",
			slog.String("endpoint", url),
			slog.Int("status", resp.StatusCode()))
		metrics.RecordGenerationSend(string(kind), "bad_status")
		return false
	}

	log.Info("generation request sent", slog.Int("payload_len", len(text)))
	metrics.RecordGenerationSend(string(kind), "ok")

	return true
}

// AwaitResponse blocks until the reply registered under requestID arrives or
// the timeout elapses. A closed wait window surfaces as ErrReplyTimeout so
// callers can record it distinctly from a send failure.
func (g *Gateway) AwaitResponse(ctx context.Context, userID int64, requestID string, kind Kind) (string, error) {
	log := g.log.With(
		slog.Int64("user_id", userID),
		slog.String("request_id", requestID),
		slog.String("kind", string(kind)),
	)

	timeout := g.ReplyTimeout()
	start := time.Now()

	payload, err := g.store.Await(ctx, requestID, timeout)
	if err != nil {
		if errors.Is(err, correlation.ErrTimeout) {
			log.Warn("generation reply timed out", slog.Duration("timeout", timeout))
			metrics.RecordGenerationAwait(string(kind), "timeout", time.Since(start))
		} else {
			log.Warn("generation await aborted", slog.Any("error", err))
			metrics.RecordGenerationAwait(string(kind), "canceled", time.Since(start))
		}
		return "", err
	}

	log.Info("generation reply received", slog.Int("response_len", len(payload)))
	metrics.RecordGenerationAwait(string(kind), "ok", time.Since(start))

	return payload, nil
}

// Generate runs one full request/reply cycle: it registers the request
// identifier, posts the payload, and blocks until the correlated reply arrives
// or the wait window closes. The pending entry never outlives the call.
func (g *Gateway) Generate(ctx context.Context, userID int64, text, requestID string, kind Kind) (string, error) {
	if _, err := g.store.Register(requestID); err != nil {
		g.log.Error("failed to register generation request",
			slog.Int64("user_id", userID),
			slog.String("request_id", requestID),
			slog.Any("error", err))
		return "", err
	}

	if !g.Send(ctx, userID, text, requestID, kind) {
		g.store.Release(requestID)
		return "", ErrSendFailed
	}

	return g.AwaitResponse(ctx, userID, requestID, kind)
}

// Store exposes the underlying correlation store for the inbound receiver.
func (g *Gateway) Store() *correlation.Store {
	return g.store
}

func (g *Gateway) endpoint(kind Kind) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	url, ok := g.endpoints[kind]
	return url, ok
}

func endpointsFrom(cfg config.GenerationConfig) map[Kind]string {
	return map[Kind]string{
		KindOsebe:    cfg.OsebeURL,
		KindPost:     cfg.PostURL,
		KindBluebutt: cfg.BluebuttURL,
		KindAnons:    cfg.AnonsURL,
		KindProdaj:   cfg.ProdajURL,
	}
}
