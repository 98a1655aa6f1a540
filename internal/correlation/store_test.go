package correlation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStore_RegisterRejectsDuplicate(t *testing.T) {
	store := NewStore(testLogger())

	_, err := store.Register("req-1")
	assert.NoError(t, err)

	_, err = store.Register("req-1")
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestStore_FulfillDeliversToWaiter(t *testing.T) {
	store := NewStore(testLogger())

	_, err := store.Register("req-1")
	assert.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		assert.True(t, store.Fulfill("req-1", "generated text"))
	}()

	payload, err := store.Await(context.Background(), "req-1", time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "generated text", payload)
	assert.Equal(t, 0, store.Pending())
}

func TestStore_FulfillBeforeAwaitNotLost(t *testing.T) {
	store := NewStore(testLogger())

	_, err := store.Register("req-1")
	assert.NoError(t, err)

	// The reply may land before the sender reaches Await.
	assert.True(t, store.Fulfill("req-1", "early reply"))

	payload, err := store.Await(context.Background(), "req-1", time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "early reply", payload)
	assert.Equal(t, 0, store.Pending())
}

func TestStore_DuplicateFulfillDropped(t *testing.T) {
	store := NewStore(testLogger())

	_, err := store.Register("req-1")
	assert.NoError(t, err)

	assert.True(t, store.Fulfill("req-1", "first"))
	assert.False(t, store.Fulfill("req-1", "second"))

	payload, err := store.Await(context.Background(), "req-1", time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "first", payload)
}

func TestStore_AwaitTimesOut(t *testing.T) {
	store := NewStore(testLogger())

	_, err := store.Register("req-1")
	assert.NoError(t, err)

	_, err = store.Await(context.Background(), "req-1", 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)

	// The entry is gone, so a late reply has nowhere to land.
	assert.False(t, store.Fulfill("req-1", "too late"))
	assert.Equal(t, 0, store.Pending())
}

func TestStore_AwaitHonorsContextCancel(t *testing.T) {
	store := NewStore(testLogger())

	_, err := store.Register("req-1")
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err = store.Await(ctx, "req-1", time.Second)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, store.Pending())
}

func TestStore_AwaitUnknownRequest(t *testing.T) {
	store := NewStore(testLogger())

	_, err := store.Await(context.Background(), "never-registered", 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestStore_FulfillUnknownRequestDropped(t *testing.T) {
	store := NewStore(testLogger())

	assert.False(t, store.Fulfill("unknown", "payload"))
}

func TestStore_ReleaseDiscardsEntry(t *testing.T) {
	store := NewStore(testLogger())

	_, err := store.Register("req-1")
	assert.NoError(t, err)
	assert.Equal(t, 1, store.Pending())

	store.Release("req-1")
	assert.Equal(t, 0, store.Pending())

	// Releasing twice is a no-op.
	store.Release("req-1")
	assert.Equal(t, 0, store.Pending())
}
