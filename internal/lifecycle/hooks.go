package lifecycle

import "context"

// Hook is one named step of the shutdown sequence.
type Hook struct {
	Name string
	Fn   func(ctx context.Context) error
}
