package concurrency

import (
	"context"
	"sync"
)

// Limiter caps the number of concurrent operations. Callers over the cap
// wait in FIFO order; Release hands the freed slot to the oldest waiter.
type Limiter struct {
	mu      sync.Mutex
	slots   int
	active  int
	waiters []chan struct{}
}

// NewLimiter builds a limiter with the given number of slots (minimum 1).
func NewLimiter(slots int) *Limiter {
	if slots <= 0 {
		slots = 1
	}
	return &Limiter{slots: slots}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	if l.active < l.slots {
		l.active++
		l.mu.Unlock()
		return nil
	}

	ch := make(chan struct{})
	l.waiters = append(l.waiters, ch)
	l.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		for i, w := range l.waiters {
			if w == ch {
				l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
				l.mu.Unlock()
				return ctx.Err()
			}
		}
		// The slot was handed to us after ctx fired; give it back.
		l.releaseLocked()
		l.mu.Unlock()
		return ctx.Err()
	}
}

// Release frees a slot. Must be paired with a successful Acquire.
func (l *Limiter) Release() {
	l.mu.Lock()
	l.releaseLocked()
	l.mu.Unlock()
}

func (l *Limiter) releaseLocked() {
	if len(l.waiters) > 0 {
		// Transfer the slot: active count stays the same.
		ch := l.waiters[0]
		l.waiters = l.waiters[1:]
		close(ch)
		return
	}
	if l.active > 0 {
		l.active--
	}
}

// InFlight returns the number of held slots.
func (l *Limiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}
