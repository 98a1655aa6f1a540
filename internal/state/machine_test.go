package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) GetState(ctx context.Context, userID int64) (*UserState, error) {
	args := m.Called(ctx, userID)
	state, _ := args.Get(0).(*UserState)
	return state, args.Error(1)
}

func (m *mockStorage) SetState(ctx context.Context, userID int64, state *UserState) error {
	args := m.Called(ctx, userID, state)
	return args.Error(0)
}

func (m *mockStorage) ClearState(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStateMachine_TransitionTo(t *testing.T) {
	ctx := context.Background()
	userID := int64(42)
	log := testLogger()

	testCases := []struct {
		name        string
		setupMocks  func(ms *mockStorage)
		newState    State
		expectedErr error
	}{
		{
			name: "successful transition",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetState", mock.Anything, userID).
					Return(&UserState{CurrentState: StateNew}, nil).Once()
				ms.On("SetState", mock.Anything, userID, mock.MatchedBy(func(state *UserState) bool {
					return state.CurrentState == StateWaitingEmail
				})).Return(nil).Once()
			},
			newState:    StateWaitingEmail,
			expectedErr: nil,
		},
		{
			name: "invalid transition",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetState", mock.Anything, userID).
					Return(&UserState{CurrentState: StateNew}, nil).Once()
			},
			newState:    StatePreviewPost,
			expectedErr: ErrInvalidTransition,
		},
		{
			name: "missing record treated as new user",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetState", mock.Anything, userID).
					Return((*UserState)(nil), ErrStateNotFound).Once()
				ms.On("SetState", mock.Anything, userID, mock.MatchedBy(func(state *UserState) bool {
					return state.CurrentState == StateWaitingEmail
				})).Return(nil).Once()
			},
			newState:    StateWaitingEmail,
			expectedErr: nil,
		},
		{
			name: "unknown stored state normalized before check",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetState", mock.Anything, userID).
					Return(&UserState{CurrentState: State("legacy")}, nil).Once()
				ms.On("SetState", mock.Anything, userID, mock.MatchedBy(func(state *UserState) bool {
					return state.CurrentState == StateWaitingEmail
				})).Return(nil).Once()
			},
			newState:    StateWaitingEmail,
			expectedErr: nil,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ms := &mockStorage{}
			tc.setupMocks(ms)

			fsm := NewStateMachine(ms, log, nil)
			err := fsm.TransitionTo(ctx, userID, tc.newState)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Fatalf("expected error %v, got %v", tc.expectedErr, err)
				}
			} else if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			ms.AssertExpectations(t)
		})
	}
}

func TestStateMachine_GetState(t *testing.T) {
	ctx := context.Background()
	userID := int64(7)
	log := testLogger()

	t.Run("normalizes unknown stored state", func(t *testing.T) {
		ms := &mockStorage{}
		ms.On("GetState", mock.Anything, userID).
			Return(&UserState{CurrentState: State("legacy")}, nil).Once()

		fsm := NewStateMachine(ms, log, nil)
		s, err := fsm.GetState(ctx, userID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s != StateNew {
			t.Fatalf("expected %s, got %s", StateNew, s)
		}
	})

	t.Run("missing record reads as new", func(t *testing.T) {
		ms := &mockStorage{}
		ms.On("GetState", mock.Anything, userID).
			Return((*UserState)(nil), ErrStateNotFound).Once()

		fsm := NewStateMachine(ms, log, nil)
		s, err := fsm.GetState(ctx, userID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s != StateNew {
			t.Fatalf("expected %s, got %s", StateNew, s)
		}
	})

	t.Run("storage failure propagates", func(t *testing.T) {
		ms := &mockStorage{}
		ms.On("GetState", mock.Anything, userID).
			Return((*UserState)(nil), errors.New("connection refused")).Once()

		fsm := NewStateMachine(ms, log, nil)
		if _, err := fsm.GetState(ctx, userID); err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

func TestStateMachine_SetStateBypassesTransitionTable(t *testing.T) {
	ctx := context.Background()
	userID := int64(9)

	ms := &mockStorage{}
	ms.On("SetState", mock.Anything, userID, mock.MatchedBy(func(state *UserState) bool {
		return state.CurrentState == StateAnsweringSalesQuestions
	})).Return(nil).Once()

	fsm := NewStateMachine(ms, testLogger(), nil)
	if err := fsm.SetState(ctx, userID, StateAnsweringSalesQuestions); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	ms.AssertExpectations(t)
}

func TestStateMachine_LockBlocksConcurrentMutation(t *testing.T) {
	ctx := context.Background()
	userID := int64(11)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	// Simulate another handler holding the per-user lock.
	if err := client.SetNX(ctx, fmt.Sprintf(userLockKeyPattern, userID), 1, lockTTL).Err(); err != nil {
		t.Fatalf("failed to seed lock: %v", err)
	}

	ms := &mockStorage{}
	fsm := NewStateMachine(ms, testLogger(), client)

	if err := fsm.SetState(ctx, userID, StateWaitingEmail); !errors.Is(err, ErrStateLocked) {
		t.Fatalf("expected ErrStateLocked, got %v", err)
	}

	ms.AssertExpectations(t)
}

func TestStateMachine_LockReleasedAfterMutation(t *testing.T) {
	ctx := context.Background()
	userID := int64(12)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ms := &mockStorage{}
	ms.On("SetState", mock.Anything, userID, mock.Anything).Return(nil).Twice()

	fsm := NewStateMachine(ms, testLogger(), client)

	if err := fsm.SetState(ctx, userID, StateWaitingEmail); err != nil {
		t.Fatalf("first mutation failed: %v", err)
	}
	if err := fsm.SetState(ctx, userID, StateRegistered); err != nil {
		t.Fatalf("second mutation failed: %v", err)
	}

	ms.AssertExpectations(t)
}
