package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/securebank/bank-portal/internal/events"
	"github.com/securebank/bank-portal/internal/gateway"
	"github.com/securebank/bank-portal/internal/observability"
	"github.com/securebank/bank-portal/internal/session"
)

const sessionKey = "portal_session"

// StoreFactory builds the token store bound to one request.
type StoreFactory func(c *fiber.Ctx) session.TokenStore

// Session is the per-request view of the browser's session.
type Session struct {
	Gate  *session.Gate
	Store session.TokenStore
}

// Snapshot is shorthand for the current session snapshot.
func (s *Session) Snapshot() session.Snapshot {
	return s.Gate.State().Read()
}

// SessionMiddleware restores the browser's session on every request.
type SessionMiddleware struct {
	stores   StoreFactory
	gateOpts session.Options
}

// SessionOptions configures NewSessionMiddleware.
type SessionOptions struct {
	Stores     StoreFactory
	Routes     *session.RouteTable
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Gate       session.Options
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(opts SessionOptions) *SessionMiddleware {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gateOpts := opts.Gate
	gateOpts.Routes = opts.Routes
	gateOpts.Dispatcher = opts.Dispatcher
	gateOpts.Logger = logger
	return &SessionMiddleware{stores: opts.Stores, gateOpts: gateOpts}
}

// Handle binds a token store to the request, restores the session from it
// and makes the store the source of gateway credentials for the request.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	store := m.stores(c)
	gate := session.NewGate(store, session.NewState(), m.gateOpts)

	ctx := gateway.WithTokenStore(c.UserContext(), store)
	if reqID := observability.RequestID(c); reqID != "" {
		ctx = gateway.WithRequestID(ctx, reqID)
	}
	c.SetUserContext(ctx)

	gate.Restore(ctx)
	c.Locals(sessionKey, &Session{Gate: gate, Store: store})
	return c.Next()
}

// SessionFromContext retrieves the request's session.
func SessionFromContext(c *fiber.Ctx) (*Session, bool) {
	val := c.Locals(sessionKey)
	if val == nil {
		return nil, false
	}
	s, ok := val.(*Session)
	return s, ok
}
