package events

import "testing"

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus()

	var got []Event
	bus.Subscribe(func(evt Event) {
		got = append(got, evt)
	})

	bus.Publish(Event{Type: AssignmentCreated, CourseID: "c1", UserID: "u1", Source: "local"})
	bus.Publish(Event{Type: AssignmentUpdated, CourseID: "c1", UserID: "u1", Source: "local"})

	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Type != AssignmentCreated || got[1].Type != AssignmentUpdated {
		t.Errorf("unexpected event order: %v, %v", got[0].Type, got[1].Type)
	}
	if got[0].Timestamp.IsZero() {
		t.Error("expected publish to stamp the event")
	}
}

func TestBusNilSafe(t *testing.T) {
	var bus *Bus
	// Must not panic.
	bus.Publish(Event{Type: AssignmentDeleted})
}

func TestBusMultipleSubscribers(t *testing.T) {
	bus := NewBus()

	first, second := 0, 0
	bus.Subscribe(func(Event) { first++ })
	bus.Subscribe(func(Event) { second++ })

	bus.Publish(Event{Type: AssignmentCreated})

	if first != 1 || second != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", first, second)
	}
}
