// Package state manages the funnel position of every user and the legal
// transitions between funnel states.
package state

import "context"

// Storage defines the persistence contract for user funnel state.
type Storage interface {
	// GetState returns the current state for the specified user.
	GetState(ctx context.Context, userID int64) (*UserState, error)
	// SetState saves the provided state for the specified user.
	SetState(ctx context.Context, userID int64, state *UserState) error
	// ClearState resets the user back to the initial state.
	ClearState(ctx context.Context, userID int64) error
}
