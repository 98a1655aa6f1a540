// Package webhook receives the asynchronous generation replies pushed back by
// the workflow engine and fulfills the matching pending requests.
package webhook

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pptbot/pptbot/internal/correlation"
	"github.com/pptbot/pptbot/internal/health"
	"github.com/pptbot/pptbot/internal/lifecycle"
	"github.com/pptbot/pptbot/pkg/logger"
	"github.com/pptbot/pptbot/pkg/metrics"
)

var replyKinds = []string{"osebe", "post", "bluebutt", "anons", "prodaj"}

// replyBody is the JSON fallback when the engine does not use headers.
// TelegramID is a json.Number so both quoted and bare numbers are accepted.
type replyBody struct {
	TelegramID json.Number `json:"telegram_id"`
	RequestID  string      `json:"request_id"`
	Response   string      `json:"response"`
}

// Server handles the inbound reply routes plus liveness and metrics.
type Server struct {
	store   *correlation.Store
	checker *health.Checker
	probes  lifecycle.HealthChecker
	log     *slog.Logger
}

// NewServer builds the inbound receiver around the correlation store.
func NewServer(store *correlation.Store, checker *health.Checker, probes lifecycle.HealthChecker, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	return &Server{
		store:   store,
		checker: checker,
		probes:  probes,
		log:     log,
	}
}

// Router assembles the gin engine with one reply route per generation kind.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.CorrelationMiddleware())

	for _, kind := range replyKinds {
		kind := kind
		r.POST("/webhook/response/"+kind, func(c *gin.Context) {
			s.handleReply(c, kind)
		})
	}

	r.GET("/health", s.handleHealth)
	r.GET("/live", s.handleProbe(func(ctx *gin.Context) error {
		return s.probes.Liveness(ctx.Request.Context())
	}))
	r.GET("/ready", s.handleProbe(func(ctx *gin.Context) error {
		return s.probes.Readiness(ctx.Request.Context())
	}))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// handleReply extracts the three logical reply fields, validates the user
// identifier, and fulfills the pending request. The response is 200 even when
// no waiter matched: telling the engine to retry a late reply would only
// duplicate it.
func (s *Server) handleReply(c *gin.Context, kind string) {
	telegramIDRaw, requestID, response := extractFields(c)

	if telegramIDRaw == "" {
		s.log.Error("reply without telegram id", slog.String("kind", kind))
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "missing telegram-id"})
		return
	}

	telegramID, err := strconv.ParseInt(telegramIDRaw, 10, 64)
	if err != nil {
		s.log.Error("malformed telegram id in reply",
			slog.String("kind", kind),
			slog.String("telegram_id", telegramIDRaw))
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid telegram-id format"})
		return
	}

	log := s.log.With(
		slog.String("kind", kind),
		slog.Int64("user_id", telegramID),
		slog.String("request_id", requestID),
	)

	if requestID == "" || response == "" {
		log.Error("incomplete reply payload")
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "missing request-id or response"})
		return
	}

	matched := s.store.Fulfill(requestID, response)
	metrics.RecordWebhookReply(kind, matched)

	if matched {
		log.Info("reply delivered to waiting handler", slog.Int("response_len", len(response)))
	} else {
		log.Warn("reply had no waiting handler")
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) handleProbe(probe func(*gin.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.probes == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		if err := probe(c); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{"status": "ok", "service": "pptbot-webhook-server"}

	if s.checker != nil {
		components := s.checker.Check(c.Request.Context())
		body["components"] = components

		for _, status := range components {
			if status != "OK" {
				body["status"] = "degraded"
				break
			}
		}
	}

	c.JSON(http.StatusOK, body)
}

// extractFields reads telegram id, request id, and reply text from the request
// headers, falling back to a JSON body for engines that post structured bodies.
func extractFields(c *gin.Context) (telegramID, requestID, response string) {
	telegramID = headerValue(c, "telegram-id", "telegram_id")
	requestID = headerValue(c, "request-id", "request_id")
	response = c.GetHeader("response")

	if telegramID != "" && requestID != "" && response != "" {
		return telegramID, requestID, response
	}

	var body replyBody
	if err := c.ShouldBindJSON(&body); err == nil {
		if telegramID == "" {
			telegramID = body.TelegramID.String()
		}
		if requestID == "" {
			requestID = body.RequestID
		}
		if response == "" {
			response = body.Response
		}
	}

	return telegramID, requestID, response
}

func headerValue(c *gin.Context, names ...string) string {
	for _, name := range names {
		if v := c.GetHeader(name); v != "" {
			return v
		}
	}
	return ""
}
