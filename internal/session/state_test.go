package session_test

import (
	"errors"
	"testing"

	"github.com/securebank/bank-portal/internal/session"
)

func str(s string) *string { return &s }

func TestStateRejectsPartialSnapshots(t *testing.T) {
	state := session.NewState()
	var seen []session.Snapshot
	state.Subscribe(func(s session.Snapshot) { seen = append(seen, s) })

	if err := state.Set(session.Snapshot{UserID: "1", Username: "alice"}); !errors.Is(err, session.ErrPartialSnapshot) {
		t.Fatalf("expected partial snapshot error, got %v", err)
	}
	if err := state.Update(session.Patch{Username: str("alice")}); !errors.Is(err, session.ErrPartialSnapshot) {
		t.Fatalf("expected partial patch error, got %v", err)
	}
	if len(seen) != 0 || !state.Read().Anonymous() {
		t.Fatalf("partial write leaked: %+v %+v", seen, state.Read())
	}
}

func TestStateUpdateMergesAndNotifiesInOrder(t *testing.T) {
	state := session.NewState()
	var order []string
	state.Subscribe(func(session.Snapshot) { order = append(order, "first") })
	state.Subscribe(func(session.Snapshot) { order = append(order, "second") })

	if err := state.Update(session.Patch{UserID: str("123"), Role: str("admin"), Username: str("username")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := state.Update(session.Patch{Role: str("CUSTOMER")}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	want := session.Snapshot{UserID: "123", Role: "CUSTOMER", Username: "username"}
	if state.Read() != want {
		t.Fatalf("expected %+v, got %+v", want, state.Read())
	}
	if len(order) != 4 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("unexpected notification order %v", order)
	}
}

func TestStateUnsubscribe(t *testing.T) {
	state := session.NewState()
	calls := 0
	unsubscribe := state.Subscribe(func(session.Snapshot) { calls++ })

	state.Clear()
	unsubscribe()
	unsubscribe()
	state.Clear()

	if calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}
}

func TestStatesAreIndependent(t *testing.T) {
	a, b := session.NewState(), session.NewState()
	_ = a.Set(session.Snapshot{UserID: "1", Role: "CUSTOMER", Username: "alice"})
	if !b.Read().Anonymous() {
		t.Fatalf("state leaked between instances")
	}
}
