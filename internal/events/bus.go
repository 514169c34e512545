package events

import (
	"sync"
	"time"
)

// Type enumerates the sync events other parts of the app can observe.
// assignment_deleted exists for symmetry; no flow emits it today.
type Type string

const (
	AssignmentCreated Type = "assignment_created"
	AssignmentUpdated Type = "assignment_updated"
	AssignmentDeleted Type = "assignment_deleted"
)

// Event is one sync occurrence with its routing metadata.
type Event struct {
	Type      Type
	CourseID  string
	UserID    string
	Source    string // "local" or "remote"
	Timestamp time.Time
	Data      any
}

// Bus is a minimal in-process pub/sub. Handlers run synchronously on the
// publisher's goroutine; keep them cheap.
type Bus struct {
	mu   sync.RWMutex
	subs []func(Event)
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for every event. There is no unsubscribe;
// the bus lives for the process lifetime.
func (b *Bus) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.subs = append(b.subs, fn)
	b.mu.Unlock()
}

// Publish delivers the event to every subscriber. A nil bus drops events,
// so emitters never need a guard.
func (b *Bus) Publish(evt Event) {
	if b == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	b.mu.RLock()
	subs := make([]func(Event), len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(evt)
	}
}
