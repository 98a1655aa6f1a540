package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Result is the outcome of one rate-limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter throttles inbound funnel updates per key, which is either a
// telegram id or the shared global bucket.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// ErrLimitExceeded reports that the key's window budget is spent.
var ErrLimitExceeded = errors.New("rate limit exceeded")
