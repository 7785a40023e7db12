package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherRunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	first := errors.New("first")

	d.Subscribe(func(context.Context, Event) error {
		calls = append(calls, "a")
		return first
	}, EventSignedIn)
	d.Subscribe(func(context.Context, Event) error {
		calls = append(calls, "b")
		return nil
	}, EventSignedIn, EventSessionExpired)
	d.Subscribe(func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	}, EventSignedOut)

	err := d.Publish(context.Background(), NewEvent(EventSignedIn, Identity{Username: "alice"}, ""))
	if !errors.Is(err, first) {
		t.Fatalf("expected joined handler error, got %v", err)
	}
	if len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Fatalf("unexpected calls %v", calls)
	}
}

func TestSubscribeWithoutTypesSeesEveryEvent(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []EventType
	d.Subscribe(func(_ context.Context, e Event) error {
		seen = append(seen, e.Type)
		return nil
	})

	for _, kind := range []EventType{EventSignedIn, EventAccessDenied, EventSessionExpired} {
		if err := d.Publish(context.Background(), NewEvent(kind, Identity{}, "")); err != nil {
			t.Fatalf("publish %s: %v", kind, err)
		}
	}
	if len(seen) != 3 || seen[1] != EventAccessDenied {
		t.Fatalf("unexpected events %v", seen)
	}
}

func TestNewEventStamps(t *testing.T) {
	a := NewEvent(EventSessionExpired, Identity{}, "x")
	b := NewEvent(EventSessionExpired, Identity{}, "x")
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected unique ids, got %q and %q", a.ID, b.ID)
	}
	if a.Timestamp.IsZero() || a.Timestamp.Location().String() != "UTC" {
		t.Fatalf("unexpected timestamp %v", a.Timestamp)
	}
}
