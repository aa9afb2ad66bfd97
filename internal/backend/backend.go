// Package backend implements the reply producers behind routed commands:
// the text-completion assistant and the domain lookups.
package backend

import (
	"context"
	"fmt"
	"time"
)

// Backend answers one query argument with reply text.
type Backend interface {
	Query(ctx context.Context, arg string) (string, error)
	Name() string
}

// Error is a backend failure. It carries detail for logs; it is never
// shown to chat users.
type Error struct {
	Backend string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend %s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
