package booking

import (
	"context"
	"sync"
	"time"
)

// keyedLock serializes reservations per room type. Each key gets a
// one-slot semaphore; acquisition is bounded so a stuck holder surfaces as
// ErrReservationTimeout instead of a deadlock.
type keyedLock struct {
	mu    sync.Mutex
	slots map[int64]chan struct{}
}

func newKeyedLock() *keyedLock {
	return &keyedLock{slots: make(map[int64]chan struct{})}
}

func (l *keyedLock) slot(key int64) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[key] = s
	}
	return s
}

// acquire takes the key's slot, waiting at most timeout. It also gives up
// when ctx is cancelled so an abandoned request never holds inventory.
func (l *keyedLock) acquire(ctx context.Context, key int64, timeout time.Duration) error {
	s := l.slot(key)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrReservationTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *keyedLock) release(key int64) {
	s := l.slot(key)
	select {
	case <-s:
	default:
		// released without being held; nothing to do
	}
}
