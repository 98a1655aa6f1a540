package repository

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/pptbot/pptbot/internal/errors"
	"github.com/pptbot/pptbot/internal/state"
)

// stateStorage adapts the user repository to the state.Storage contract so
// the state machine keeps funnel position in the users table rather than a
// separate store.
type stateStorage struct {
	users UserRepository
}

// NewStateStorage exposes user rows as funnel state storage.
func NewStateStorage(users UserRepository) state.Storage {
	return &stateStorage{users: users}
}

func (s *stateStorage) GetState(ctx context.Context, userID int64) (*state.UserState, error) {
	raw, err := s.users.GetState(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, state.ErrStateNotFound
		}
		return nil, err
	}

	return &state.UserState{
		UserID:       userID,
		CurrentState: state.State(raw),
		UpdatedAt:    time.Now(),
	}, nil
}

// SetState persists the funnel position. A lost write here strands the user in
// their previous stage, so transient database errors are retried with backoff.
func (s *stateStorage) SetState(ctx context.Context, userID int64, userState *state.UserState) error {
	return apperrors.WithRetry(ctx, func() error {
		if err := s.users.UpdateState(ctx, userID, string(userState.CurrentState)); err != nil {
			return apperrors.NewDatabaseError(err)
		}
		return nil
	})
}

func (s *stateStorage) ClearState(ctx context.Context, userID int64) error {
	return apperrors.WithRetry(ctx, func() error {
		if err := s.users.UpdateState(ctx, userID, string(state.StateNew)); err != nil {
			return apperrors.NewDatabaseError(err)
		}
		return nil
	})
}
