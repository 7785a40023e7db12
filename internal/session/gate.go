package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/securebank/bank-portal/internal/events"
	"github.com/securebank/bank-portal/internal/observability"
)

// DefaultCheckInterval is how often Watch re-validates the stored token.
const DefaultCheckInterval = 10 * time.Minute

// Status is the access gate state.
type Status int

const (
	StatusAnonymous Status = iota
	StatusAuthenticated
)

func (s Status) String() string {
	if s == StatusAuthenticated {
		return "AUTHENTICATED"
	}
	return "ANONYMOUS"
}

// Options tunes a Gate. Zero values pick defaults.
type Options struct {
	Routes        *RouteTable
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	Clock         Clock
	CheckInterval time.Duration
	TokenTTL      time.Duration
}

// Gate moves a session between ANONYMOUS and AUTHENTICATED and decides
// which views are reachable.
type Gate struct {
	store      TokenStore
	state      *State
	tokens     *Tokens
	routes     *RouteTable
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        Clock
	interval   time.Duration
	ttl        time.Duration
}

// NewGate builds a gate over store and state.
func NewGate(store TokenStore, state *State, opts Options) *Gate {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Routes == nil {
		opts.Routes = NewRouteTable()
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultCheckInterval
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = DefaultTokenTTL
	}
	return &Gate{
		store:      store,
		state:      state,
		tokens:     NewTokens(store, opts.Clock),
		routes:     opts.Routes,
		dispatcher: opts.Dispatcher,
		logger:     opts.Logger,
		now:        opts.Clock,
		interval:   opts.CheckInterval,
		ttl:        opts.TokenTTL,
	}
}

// State exposes the session state the gate writes to.
func (g *Gate) State() *State { return g.state }

// Store exposes the token store the gate writes to.
func (g *Gate) Store() TokenStore { return g.store }

// Tokens exposes claim accessors over the gate's store.
func (g *Gate) Tokens() *Tokens { return g.tokens }

// Status derives the gate state from the current snapshot.
func (g *Gate) Status() Status {
	if g.state.Read().Authenticated() {
		return StatusAuthenticated
	}
	return StatusAnonymous
}

// Restore sets the initial state from the stored token. An expired token is
// removed; a malformed one is left in place and ignored.
func (g *Gate) Restore(ctx context.Context) Status {
	claims, err := g.tokens.Validate(ctx)
	switch {
	case err == nil:
		_ = g.state.Set(claims.Snapshot())
		return StatusAuthenticated
	case isAbsent(err):
	case IsExpired(err):
		if rmErr := g.store.Remove(ctx); rmErr != nil {
			g.logger.Warn("remove expired token", zap.Error(rmErr))
		}
		g.publish(ctx, events.EventSessionExpired, claims.Snapshot(), "")
		g.logger.Info("stored session expired", zap.String("username", claims.Username))
	case IsMalformed(err):
		g.logger.Debug("ignoring malformed stored token", zap.Error(err))
	default:
		g.logger.Warn("read stored token", zap.Error(err))
	}
	g.state.Clear()
	return StatusAnonymous
}

// SignIn accepts a token returned by a successful sign-in or sign-up.
// Nothing is mutated when the token is unusable or ctx is already done.
func (g *Gate) SignIn(ctx context.Context, token string) (Claims, error) {
	claims, err := Decode(token)
	if err != nil {
		return Claims{}, err
	}
	if !claims.Complete() {
		return claims, &MalformedTokenError{Reason: "required claims missing"}
	}
	if claims.Expired(g.now()) {
		return claims, &ExpiredSessionError{Username: claims.Username, ExpiredAt: claims.ExpiresAt}
	}
	if err := ctx.Err(); err != nil {
		return claims, err
	}

	if err := g.store.Set(ctx, token, g.ttl); err != nil {
		return claims, fmt.Errorf("store token: %w", err)
	}
	snap := claims.Snapshot()
	_ = g.state.Set(snap)
	g.publish(ctx, events.EventSignedIn, snap, "")
	g.logger.Info("signed in", observability.Identity(snap.Username, snap.Role)...)
	return claims, nil
}

// SignOut is the explicit sign-out action.
func (g *Gate) SignOut(ctx context.Context, navigate Navigator) error {
	prev := g.state.Read()
	err := SignOut(ctx, g.store, g.update, navigate)
	if !prev.Anonymous() {
		g.publish(ctx, events.EventSignedOut, prev, "")
		g.logger.Info("signed out", observability.Identity(prev.Username, prev.Role)...)
	}
	return err
}

// Check forces sign-out when an authenticated session's token is absent,
// malformed or expired and returns the resulting *ExpiredSessionError.
// Anonymous sessions are left alone. Storage errors are reported without
// changing state.
func (g *Gate) Check(ctx context.Context, navigate Navigator) error {
	prev := g.state.Read()
	if !prev.Authenticated() {
		return nil
	}

	_, err := g.tokens.Validate(ctx)
	if err == nil {
		return nil
	}

	var expired *ExpiredSessionError
	switch {
	case errors.As(err, &expired):
	case isAbsent(err), IsMalformed(err):
		expired = &ExpiredSessionError{Username: prev.Username}
	default:
		g.logger.Warn("session check failed", zap.Error(err))
		return err
	}

	if rmErr := SignOut(ctx, g.store, g.update, navigate); rmErr != nil {
		g.logger.Warn("sign out after expiry", zap.Error(rmErr))
	}
	g.publish(ctx, events.EventSessionExpired, prev, expired.Error())
	g.logger.Info("session expired", observability.Identity(prev.Username, prev.Role)...)
	return expired
}

// Watch runs Check every check interval until ctx is cancelled. The owning
// UI cancels ctx when it is torn down.
func (g *Gate) Watch(ctx context.Context, navigate Navigator) {
	g.Every(ctx, func() { _ = g.Check(ctx, navigate) })
}

// Every calls tick every check interval until ctx is cancelled. A UI that
// applies all session changes on one goroutine schedules Check itself from
// tick instead of using Watch.
func (g *Gate) Every(ctx context.Context, tick func()) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}

// Authorize evaluates a navigation to path. The stored token is
// re-validated first, so an expired session is signed out before the route
// table is consulted; the second result reports that case. navigate
// receives the landing path on expiry and may be nil.
func (g *Gate) Authorize(ctx context.Context, path string, navigate Navigator) (Decision, bool) {
	expired := IsExpired(g.Check(ctx, navigate))
	decision := g.routes.Resolve(path, g.Status() == StatusAuthenticated)
	if !decision.Allowed() && g.dispatcher != nil {
		g.publish(ctx, events.EventAccessDenied, g.state.Read(), string(decision.Outcome)+" "+path)
	}
	return decision, expired
}

func (g *Gate) update(s Snapshot) {
	_ = g.state.Set(s)
}

func (g *Gate) publish(ctx context.Context, kind events.EventType, snap Snapshot, detail string) {
	if g.dispatcher == nil {
		return
	}
	_ = g.dispatcher.Publish(ctx, events.NewEvent(kind, events.Identity{
		UserID:   snap.UserID,
		Username: snap.Username,
		Role:     snap.Role,
	}, detail))
}
