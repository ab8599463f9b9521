package events

import (
	"context"
	"testing"
)

func TestMemoryBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewMemoryBus()

	var first, second []Event
	if err := bus.Subscribe(func(_ context.Context, event Event) {
		first = append(first, event)
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := bus.Subscribe(func(_ context.Context, event Event) {
		second = append(second, event)
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	event := New(KindNewFollower, "user-a", "user-b")
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one delivery per subscriber, got %d and %d", len(first), len(second))
	}
	if first[0].ID != event.ID || second[0].ID != event.ID {
		t.Fatal("delivered event does not match published event")
	}
}

func TestMemoryBusRejectsNilHandler(t *testing.T) {
	bus := NewMemoryBus()
	if err := bus.Subscribe(nil); err != ErrNilHandler {
		t.Fatalf("expected ErrNilHandler, got %v", err)
	}
}

func TestMemoryBusClosed(t *testing.T) {
	bus := NewMemoryBus()
	bus.Close()

	if err := bus.Publish(context.Background(), New(KindNewLike, "a", "b")); err != ErrBusClosed {
		t.Fatalf("expected ErrBusClosed on publish, got %v", err)
	}
	if err := bus.Subscribe(func(context.Context, Event) {}); err != ErrBusClosed {
		t.Fatalf("expected ErrBusClosed on subscribe, got %v", err)
	}
}

func TestNewEventPopulatesIdentity(t *testing.T) {
	a := New(KindConnectionRequested, "user-a", "user-b")
	b := New(KindConnectionRequested, "user-a", "user-b")

	if a.ID == "" || b.ID == "" {
		t.Fatal("expected generated event IDs")
	}
	if a.ID == b.ID {
		t.Fatal("expected distinct IDs for distinct events")
	}
	if !a.Kind.Valid() {
		t.Fatalf("expected valid kind, got %q", a.Kind)
	}
	if Kind("connection.exploded").Valid() {
		t.Fatal("unexpected kind reported valid")
	}
}
