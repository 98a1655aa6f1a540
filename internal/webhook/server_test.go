package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pptbot/pptbot/internal/correlation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) (*correlation.Store, http.Handler) {
	t.Helper()

	store := correlation.NewStore(testLogger())
	srv := NewServer(store, nil, nil, testLogger())

	return store, srv.Router()
}

func TestServer_ReplyFromHeaders(t *testing.T) {
	store, router := newTestServer(t)

	_, err := store.Register("req-1")
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhook/response/post", nil)
	req.Header.Set("telegram-id", "42")
	req.Header.Set("request-id", "req-1")
	req.Header.Set("response", "generated text")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "success")

	payload, err := store.Await(context.Background(), "req-1", time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "generated text", payload)
	assert.Equal(t, 0, store.Pending())
}

func TestServer_ReplyFromJSONBody(t *testing.T) {
	store, router := newTestServer(t)

	_, err := store.Register("req-2")
	assert.NoError(t, err)

	body := `{"telegram_id": 42, "request_id": "req-2", "response": "from body"}`
	req := httptest.NewRequest(http.MethodPost, "/webhook/response/osebe", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	payload, err := store.Await(context.Background(), "req-2", time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "from body", payload)
}

func TestServer_ReplyWithQuotedTelegramID(t *testing.T) {
	_, router := newTestServer(t)

	body := `{"telegram_id": "42", "request_id": "req-3", "response": "text"}`
	req := httptest.NewRequest(http.MethodPost, "/webhook/response/anons", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_ReplyMissingTelegramID(t *testing.T) {
	_, router := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook/response/post", nil)
	req.Header.Set("request-id", "req-4")
	req.Header.Set("response", "text")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing telegram-id")
}

func TestServer_ReplyMalformedTelegramID(t *testing.T) {
	_, router := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook/response/prodaj", nil)
	req.Header.Set("telegram-id", "not-a-number")
	req.Header.Set("request-id", "req-5")
	req.Header.Set("response", "text")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid telegram-id format")
}

func TestServer_ReplyWithoutResponseText(t *testing.T) {
	_, router := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook/response/bluebutt", nil)
	req.Header.Set("telegram-id", "42")
	req.Header.Set("request-id", "req-6")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_UnmatchedReplyStillAccepted(t *testing.T) {
	// A late reply after the waiter timed out must not provoke an engine retry.
	_, router := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook/response/post", nil)
	req.Header.Set("telegram-id", "42")
	req.Header.Set("request-id", "req-nobody-waits")
	req.Header.Set("response", "too late")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_HealthEndpoint(t *testing.T) {
	_, router := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestServer_ProbesWithoutChecker(t *testing.T) {
	_, router := newTestServer(t)

	for _, path := range []string{"/live", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}
}
