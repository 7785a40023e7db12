package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/securebank/bank-portal/internal/events"
	"github.com/securebank/bank-portal/internal/session"
	"github.com/securebank/bank-portal/internal/tokenstore"
)

type clock struct{ ns atomic.Int64 }

func newClock() *clock {
	c := &clock{}
	c.ns.Store(time.Now().UnixNano())
	return c
}

func (c *clock) Now() time.Time { return time.Unix(0, c.ns.Load()) }

func (c *clock) Advance(d time.Duration) { c.ns.Add(int64(d)) }

func (c *clock) token(t *testing.T, ttl time.Duration) string {
	t.Helper()
	return sign(t, jwt.MapClaims{"sub": "username", "userId": "123", "role": "admin", "exp": c.Now().Add(ttl).Unix()})
}

type recorder struct {
	mu    sync.Mutex
	kinds []events.EventType
}

func (r *recorder) subscribe(d events.Dispatcher) {
	d.Subscribe(func(_ context.Context, e events.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.kinds = append(r.kinds, e.Type)
		return nil
	})
}

func (r *recorder) seen(kind events.EventType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

type fixture struct {
	gate   *session.Gate
	store  *tokenstore.Memory
	clock  *clock
	events *recorder
}

func newFixture(t *testing.T, interval time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		store:  tokenstore.NewMemory(tokenstore.Config{}),
		clock:  newClock(),
		events: &recorder{},
	}
	dispatcher := events.NewInMemoryDispatcher()
	f.events.subscribe(dispatcher)
	f.gate = session.NewGate(f.store, session.NewState(), session.Options{
		Routes:        session.NewRouteTable(session.Route{Name: "home", Pattern: "/"}, session.Route{Name: "dashboard", Pattern: "/dashboard", Access: session.Authenticated}),
		Dispatcher:    dispatcher,
		Clock:         f.clock.Now,
		CheckInterval: interval,
	})
	return f
}

func (f *fixture) stored() string {
	token, _ := f.store.Get(context.Background())
	return token
}

var admin = session.Snapshot{UserID: "123", Role: "admin", Username: "username"}

func TestRestoreFromValidToken(t *testing.T) {
	f := newFixture(t, time.Minute)
	_ = f.store.Set(context.Background(), f.clock.token(t, time.Hour), time.Hour)

	if status := f.gate.Restore(context.Background()); status != session.StatusAuthenticated {
		t.Fatalf("expected authenticated, got %s", status)
	}
	if f.gate.State().Read() != admin {
		t.Fatalf("unexpected state %+v", f.gate.State().Read())
	}
}

func TestRestoreRemovesExpiredToken(t *testing.T) {
	f := newFixture(t, time.Minute)
	_ = f.store.Set(context.Background(), f.clock.token(t, -time.Hour), time.Hour)

	if status := f.gate.Restore(context.Background()); status != session.StatusAnonymous {
		t.Fatalf("expected anonymous, got %s", status)
	}
	if f.stored() != "" {
		t.Fatalf("expired token kept")
	}
	if !f.events.seen(events.EventSessionExpired) {
		t.Fatalf("expiry not published")
	}
}

func TestRestoreIgnoresMalformedToken(t *testing.T) {
	f := newFixture(t, time.Minute)
	_ = f.store.Set(context.Background(), "not-a-token", time.Hour)

	if status := f.gate.Restore(context.Background()); status != session.StatusAnonymous {
		t.Fatalf("expected anonymous, got %s", status)
	}
	if f.stored() != "not-a-token" {
		t.Fatalf("malformed token must be left in place")
	}
}

func TestSignInStoresTokenAndSetsState(t *testing.T) {
	f := newFixture(t, time.Minute)
	token := f.clock.token(t, time.Hour)

	claims, err := f.gate.SignIn(context.Background(), token)
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if claims.Username != "username" || f.stored() != token {
		t.Fatalf("token not stored")
	}
	if f.gate.Status() != session.StatusAuthenticated || f.gate.State().Read() != admin {
		t.Fatalf("state not updated: %+v", f.gate.State().Read())
	}
	if !f.events.seen(events.EventSignedIn) {
		t.Fatalf("sign in not published")
	}
}

func TestSignInMutatesNothingOnFailure(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.gate.SignIn(ctx, f.clock.token(t, time.Hour)); err == nil {
		t.Fatalf("expected cancelled sign in to fail")
	}
	if _, err := f.gate.SignIn(context.Background(), f.clock.token(t, -time.Minute)); !session.IsExpired(err) {
		t.Fatalf("expected expired error, got %v", err)
	}
	if _, err := f.gate.SignIn(context.Background(), "x.y"); !session.IsMalformed(err) {
		t.Fatalf("expected malformed error, got %v", err)
	}
	if f.stored() != "" || !f.gate.State().Read().Anonymous() {
		t.Fatalf("failed sign in mutated the session")
	}
}

func TestSignOutClearsStateAndStore(t *testing.T) {
	f := newFixture(t, time.Minute)
	_ = f.store.Set(context.Background(), f.clock.token(t, time.Hour), time.Hour)
	_ = f.gate.State().Set(admin)

	var navigated string
	if err := f.gate.SignOut(context.Background(), func(p string) { navigated = p }); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if !f.gate.State().Read().Anonymous() || f.stored() != "" {
		t.Fatalf("session not cleared")
	}
	if navigated != session.LandingPath {
		t.Fatalf("expected navigation to landing, got %q", navigated)
	}
	if !f.events.seen(events.EventSignedOut) {
		t.Fatalf("sign out not published")
	}
}

func TestSignOutWithCallbacksOnly(t *testing.T) {
	store := tokenstore.NewMemory(tokenstore.Config{})
	_ = store.Set(context.Background(), "token", time.Hour)

	updated := admin
	if err := session.SignOut(context.Background(), store, func(s session.Snapshot) { updated = s }, nil); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if !updated.Anonymous() {
		t.Fatalf("update callback not called with anonymous snapshot")
	}
	if _, err := store.Get(context.Background()); !errors.Is(err, session.ErrNoToken) {
		t.Fatalf("expected token removed, got %v", err)
	}
}

func TestCheckSignsOutWhenTokenDisappears(t *testing.T) {
	f := newFixture(t, time.Minute)
	_, _ = f.gate.SignIn(context.Background(), f.clock.token(t, time.Hour))
	_ = f.store.Remove(context.Background())

	var navigated string
	err := f.gate.Check(context.Background(), func(p string) { navigated = p })
	if !session.IsExpired(err) {
		t.Fatalf("expected expired error, got %v", err)
	}
	if navigated != session.LandingPath || f.gate.Status() != session.StatusAnonymous {
		t.Fatalf("session not signed out")
	}
}

func TestCheckLeavesAnonymousSessionAlone(t *testing.T) {
	f := newFixture(t, time.Minute)
	_ = f.store.Set(context.Background(), "not-a-token", time.Hour)

	navigated := false
	if err := f.gate.Check(context.Background(), func(string) { navigated = true }); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if navigated || f.stored() != "not-a-token" {
		t.Fatalf("anonymous check had side effects")
	}
}

func TestWatchSignsOutOnExpiryAndStopsOnCancel(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	_, _ = f.gate.SignIn(context.Background(), f.clock.token(t, time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	navigated := make(chan string, 1)
	stopped := make(chan struct{})
	go func() {
		f.gate.Watch(ctx, func(p string) { navigated <- p })
		close(stopped)
	}()

	f.clock.Advance(2 * time.Hour)
	select {
	case p := <-navigated:
		if p != session.LandingPath {
			t.Fatalf("unexpected navigation %q", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("watch never signed out")
	}
	if f.stored() != "" || !f.gate.State().Read().Anonymous() {
		t.Fatalf("expired session kept")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatalf("watch did not stop after cancel")
	}
}

func TestAuthorizeGatesAuthenticatedRoutes(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()

	d, expired := f.gate.Authorize(ctx, "/dashboard", nil)
	if d.Allowed() || d.Outcome != session.OutcomeUnauthenticated || expired {
		t.Fatalf("anonymous reached dashboard: %+v", d)
	}
	if !f.events.seen(events.EventAccessDenied) {
		t.Fatalf("denial not published")
	}

	_, _ = f.gate.SignIn(ctx, f.clock.token(t, time.Hour))
	if d, _ := f.gate.Authorize(ctx, "/dashboard", nil); !d.Allowed() {
		t.Fatalf("signed-in user denied: %+v", d)
	}

	f.clock.Advance(2 * time.Hour)
	d, expired = f.gate.Authorize(ctx, "/dashboard", nil)
	if d.Allowed() || !expired {
		t.Fatalf("expired session reached dashboard: %+v expired=%v", d, expired)
	}
}
