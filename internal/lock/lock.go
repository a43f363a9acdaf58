// Package lock serializes read-modify-write work per contact identity.
package lock

import (
	"context"
	"errors"
)

// ErrTimeout is returned when the lock could not be acquired within the wait budget.
var ErrTimeout = errors.New("timed out waiting for identity lock")

// Release gives the lock back. It is safe to call once.
type Release func(ctx context.Context) error

// Locker hands out one holder per key at a time.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}
