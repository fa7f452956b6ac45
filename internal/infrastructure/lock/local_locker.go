package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/ports"
)

// LocalLocker is a keyed mutex for single-instance deployments. The ttl
// argument is ignored; holders release explicitly.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
	wait  time.Duration
}

type slot struct {
	ch   chan struct{}
	refs int
}

var _ ports.Locker = (*LocalLocker)(nil)

// NewLocalLocker creates a locker that waits at most wait for a key
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{
		slots: make(map[string]*slot),
		wait:  wait,
	}
}

// Lock blocks until key is free, the wait budget is spent or ctx ends
func (l *LocalLocker) Lock(ctx context.Context, key string, _ time.Duration) (func(), error) {
	s := l.acquireSlot(key)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				l.releaseSlot(key)
			})
		}, nil
	case <-timer.C:
		l.releaseSlot(key)
		return nil, fmt.Errorf("lock %s: %w", key, domain.ErrBusy)
	case <-ctx.Done():
		l.releaseSlot(key)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) acquireSlot(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *LocalLocker) releaseSlot(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		return
	}
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
