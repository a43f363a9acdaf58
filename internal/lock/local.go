package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type entry struct {
	held chan struct{}
	refs int
}

type localLocker struct {
	mu      sync.Mutex
	entries map[string]*entry
	wait    time.Duration
}

// NewLocalLocker serializes per key within this process only. Used when Redis is not
// configured.
func NewLocalLocker(wait time.Duration) Locker {
	return &localLocker{
		entries: make(map[string]*entry),
		wait:    wait,
	}
}

func (l *localLocker) Acquire(ctx context.Context, key string) (Release, error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{held: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	select {
	case e.held <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, e)
		return nil, fmt.Errorf("%w: %s", ErrTimeout, key)
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-e.held
			l.unref(key, e)
		})
		return nil
	}, nil
}

func (l *localLocker) unref(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}
