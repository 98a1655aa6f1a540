package generation

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pptbot/pptbot/internal/correlation"
	"github.com/pptbot/pptbot/pkg/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(url string) config.GenerationConfig {
	return config.GenerationConfig{
		OsebeURL:     url,
		PostURL:      url,
		BluebuttURL:  url,
		AnonsURL:     url,
		ProdajURL:    url,
		SendTimeout:  time.Second,
		ReplyTimeout: 200 * time.Millisecond,
	}
}

func TestGateway_SendPostsRequestBody(t *testing.T) {
	var received Request

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	gw := NewGateway(testConfig(srv.URL), correlation.NewStore(testLogger()), testLogger())

	ok := gw.Send(context.Background(), 42, "prompt text", "req-1", KindOsebe)
	assert.True(t, ok)
	assert.Equal(t, int64(42), received.TelegramID)
	assert.Equal(t, "prompt text", received.Text)
	assert.Equal(t, "req-1", received.RequestID)
}

func TestGateway_SendFailsOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	gw := NewGateway(testConfig(srv.URL), correlation.NewStore(testLogger()), testLogger())

	assert.False(t, gw.Send(context.Background(), 42, "prompt", "req-1", KindPost))
}

func TestGateway_SendFailsOnUnknownKind(t *testing.T) {
	gw := NewGateway(testConfig("http://127.0.0.1:1"), correlation.NewStore(testLogger()), testLogger())

	assert.False(t, gw.Send(context.Background(), 42, "prompt", "req-1", Kind("mystery")))
}

func TestGateway_GenerateRoundTrip(t *testing.T) {
	store := correlation.NewStore(testLogger())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.WriteHeader(http.StatusOK)

		// The reply arrives out of band, the way the workflow engine posts it
		// back to the webhook receiver.
		go store.Fulfill(req.RequestID, "ready: "+req.Text)
	}))
	t.Cleanup(srv.Close)

	gw := NewGateway(testConfig(srv.URL), store, testLogger())

	response, err := gw.Generate(context.Background(), 42, "draft", "req-1", KindBluebutt)
	assert.NoError(t, err)
	assert.Equal(t, "ready: draft", response)
	assert.Equal(t, 0, store.Pending())
}

func TestGateway_GenerateTimesOutWithoutReply(t *testing.T) {
	store := correlation.NewStore(testLogger())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	gw := NewGateway(testConfig(srv.URL), store, testLogger())

	_, err := gw.Generate(context.Background(), 42, "draft", "req-1", KindAnons)
	assert.ErrorIs(t, err, ErrReplyTimeout)
	assert.Equal(t, 0, store.Pending())
}

func TestGateway_GenerateReleasesEntryOnSendFailure(t *testing.T) {
	store := correlation.NewStore(testLogger())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	gw := NewGateway(testConfig(srv.URL), store, testLogger())

	_, err := gw.Generate(context.Background(), 42, "draft", "req-1", KindProdaj)
	assert.ErrorIs(t, err, ErrSendFailed)
	assert.Equal(t, 0, store.Pending())
}

func TestGateway_ReconfigureSwapsEndpoints(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(good.Close)

	gw := NewGateway(testConfig("http://127.0.0.1:1"), correlation.NewStore(testLogger()), testLogger())
	assert.False(t, gw.Send(context.Background(), 42, "prompt", "req-1", KindOsebe))

	gw.Reconfigure(testConfig(good.URL))
	assert.True(t, gw.Send(context.Background(), 42, "prompt", "req-2", KindOsebe))
}

func TestGateway_ReplyTimeoutSafeUnderReconfigure(t *testing.T) {
	gw := NewGateway(testConfig("http://127.0.0.1:1"), correlation.NewStore(testLogger()), testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			cfg := testConfig("http://127.0.0.1:1")
			for j := 0; j < 100; j++ {
				cfg.ReplyTimeout = time.Duration(i*100+j+1) * time.Millisecond
				gw.Reconfigure(cfg)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if gw.ReplyTimeout() <= 0 {
					t.Error("reply timeout lost during reconfigure")
					return
				}
			}
		}()
	}
	wg.Wait()
}
