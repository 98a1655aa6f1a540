// Package correlation matches outbound generation requests with the
// asynchronous replies pushed back by the workflow engine.
package correlation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/pptbot/pptbot/pkg/metrics"
)

var (
	// ErrDuplicateRequest indicates that the request identifier is already pending.
	ErrDuplicateRequest = errors.New("request id already registered")
	// ErrTimeout indicates that no reply arrived within the wait window.
	ErrTimeout = errors.New("timed out waiting for reply")
)

// waiter is one in-flight request. The channel is buffered by one so Fulfill
// never blocks; delivered guards against a duplicate reply filling it twice.
type waiter struct {
	ch        chan string
	delivered bool
}

// Store keeps the in-flight generation requests. Entries live only between the
// outbound send and the end of the matching Await call; nothing survives a
// process restart.
type Store struct {
	mu      sync.Mutex
	waiters map[string]*waiter
	log     *slog.Logger
}

// NewStore creates an empty correlation store.
func NewStore(log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}

	return &Store{
		waiters: make(map[string]*waiter),
		log:     log,
	}
}

// Register creates a pending entry for a freshly generated request identifier.
// The returned channel receives the reply payload exactly once.
func (s *Store) Register(requestID string) (<-chan string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.waiters[requestID]; exists {
		return nil, ErrDuplicateRequest
	}

	w := &waiter{ch: make(chan string, 1)}
	s.waiters[requestID] = w
	metrics.SetPendingRequests(len(s.waiters))

	return w.ch, nil
}

// Fulfill delivers a reply to the waiter registered under requestID and reports
// whether one was found. The entry stays in the map until Await releases it, so
// a reply landing before the handler reaches Await is not lost. A reply for an
// unknown identifier (late, or for an already-abandoned request) is dropped
// with a warning, as is a duplicate.
func (s *Store) Fulfill(requestID, payload string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, exists := s.waiters[requestID]
	if !exists {
		s.log.Warn("reply for unknown request id dropped", slog.String("request_id", requestID))
		return false
	}
	if w.delivered {
		s.log.Warn("duplicate reply dropped", slog.String("request_id", requestID))
		return false
	}

	w.delivered = true
	w.ch <- payload

	return true
}

// Await blocks the calling goroutine until the entry registered under requestID
// is fulfilled, the timeout elapses, or ctx is canceled. The entry is removed
// before returning regardless of outcome. The wait itself happens outside the
// store's critical section.
func (s *Store) Await(ctx context.Context, requestID string, timeout time.Duration) (string, error) {
	s.mu.Lock()
	w, exists := s.waiters[requestID]
	s.mu.Unlock()

	if !exists {
		return "", ErrTimeout
	}

	defer s.Release(requestID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case payload := <-w.ch:
		return payload, nil
	case <-timer.C:
		return "", ErrTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Pending returns the number of in-flight requests.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiters)
}

// Release discards a pending entry without delivering a reply. Used when the
// outbound send fails after registration, and after every Await.
func (s *Store) Release(requestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.waiters[requestID]; exists {
		delete(s.waiters, requestID)
		metrics.SetPendingRequests(len(s.waiters))
	}
}
