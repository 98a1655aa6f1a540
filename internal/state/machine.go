package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userLockKeyPattern = "funnel:lock:%d"
	lockTTL            = 5 * time.Second
)

var (
	// ErrInvalidTransition indicates that a requested funnel transition is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrStateNotFound indicates that a user state record does not exist.
	ErrStateNotFound = errors.New("user state not found")
	// ErrStateLocked indicates that a concurrent operation already holds the lock.
	ErrStateLocked = errors.New("state is locked, try again later")
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe funnel transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// StateMachine describes the operations supported by the funnel controller.
type StateMachine interface {
	GetState(ctx context.Context, userID int64) (State, error)
	SetState(ctx context.Context, userID int64, s State) error
	TransitionTo(ctx context.Context, userID int64, newState State) error
	ClearState(ctx context.Context, userID int64) error
}

// machine is a concrete StateMachine backed by Storage. When a redis client is
// supplied, every state mutation is serialized per user with a short-lived
// SetNX lock so rapid-fire updates from one chat cannot interleave.
type machine struct {
	storage     Storage
	log         *slog.Logger
	redisClient *redis.Client
}

// NewStateMachine creates a funnel controller using the provided storage backend
// and an optional redis client for per-user locking.
func NewStateMachine(storage Storage, log *slog.Logger, redisClient *redis.Client) StateMachine {
	if log == nil {
		log = slog.Default()
	}

	return &machine{
		storage:     storage,
		log:         log,
		redisClient: redisClient,
	}
}

// GetState returns the user's current funnel state, normalized so that an
// unknown stored value reads as the initial state.
func (m *machine) GetState(ctx context.Context, userID int64) (State, error) {
	stored, err := m.storage.GetState(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return StateNew, nil
		}
		return StateNew, err
	}

	return Normalize(stored.CurrentState), nil
}

// SetState persists the state unconditionally, bypassing the transition table.
// Used for operator resets and for restoring a rolled-back stage.
func (m *machine) SetState(ctx context.Context, userID int64, s State) error {
	if err := m.lock(ctx, userID); err != nil {
		return err
	}
	defer m.unlock(ctx, userID)

	return m.saveState(ctx, userID, s)
}

// TransitionTo changes the state if the transition is allowed, guarded by the lock.
func (m *machine) TransitionTo(ctx context.Context, userID int64, newState State) error {
	if err := m.lock(ctx, userID); err != nil {
		return err
	}
	defer m.unlock(ctx, userID)

	current := StateNew

	stored, err := m.storage.GetState(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrStateNotFound) {
			return err
		}
	} else if stored != nil {
		current = Normalize(stored.CurrentState)
	}

	if !IsTransitionAllowed(current, newState) {
		m.log.Warn("invalid state transition",
			slog.Int64("user_id", userID),
			slog.String("from", string(current)),
			slog.String("to", string(newState)))
		return ErrInvalidTransition
	}

	transitionRecorder(string(current), string(newState))

	return m.saveState(ctx, userID, newState)
}

// ClearState resets the user to the initial state while holding the lock.
func (m *machine) ClearState(ctx context.Context, userID int64) error {
	if err := m.lock(ctx, userID); err != nil {
		return err
	}
	defer m.unlock(ctx, userID)

	return m.storage.ClearState(ctx, userID)
}

func (m *machine) saveState(ctx context.Context, userID int64, s State) error {
	return m.storage.SetState(ctx, userID, &UserState{
		UserID:       userID,
		CurrentState: s,
	})
}

func (m *machine) lock(ctx context.Context, userID int64) error {
	if m.redisClient == nil {
		return nil
	}

	key := fmt.Sprintf(userLockKeyPattern, userID)
	acquired, err := m.redisClient.SetNX(ctx, key, 1, lockTTL).Result()
	if err != nil {
		m.log.Error("failed to acquire user state lock", slog.Int64("user_id", userID), slog.Any("error", err))
		return err
	}

	if !acquired {
		m.log.Warn("user state lock already held", slog.Int64("user_id", userID))
		return ErrStateLocked
	}

	return nil
}

func (m *machine) unlock(ctx context.Context, userID int64) {
	if m.redisClient == nil {
		return
	}

	key := fmt.Sprintf(userLockKeyPattern, userID)
	if err := m.redisClient.Del(ctx, key).Err(); err != nil {
		m.log.Error("failed to release user state lock", slog.Int64("user_id", userID), slog.Any("error", err))
	}
}
