package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/securebank/bank-portal/internal/api/http/views"
	"github.com/securebank/bank-portal/internal/auth"
	"github.com/securebank/bank-portal/internal/gateway"
	"github.com/securebank/bank-portal/internal/observability"
	"github.com/securebank/bank-portal/internal/pages"
	"github.com/securebank/bank-portal/internal/session"
)

// notices are the confirmations a redirect may ask a page to show.
var notices = map[string]string{
	"reset-sent":         "If the account exists, a reset link is on its way.",
	"password-updated":   "Your password was updated. Sign in with the new password.",
	"confirmation-sent":  "We sent you a new confirmation email.",
	"deposit":            "Deposit complete.",
	"transfer":           "Transfer complete.",
	"profile-updated":    "Your profile was updated.",
	"account-opened":     "Your new account is open.",
	"card-deleted":       "Your card was cancelled.",
	"appointment-booked": "Your appointment is booked. The banker will confirm by email.",
	"account-closed":     "Your online account was closed.",
	"expired":            "Your session expired. Please sign in again.",
}

// PagesHandler renders every view of the route table.
type PagesHandler struct {
	catalog  *pages.Catalog
	renderer *views.Renderer
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewPagesHandler constructs handler.
func NewPagesHandler(catalog *pages.Catalog, renderer *views.Renderer, metrics *observability.Metrics, logger *zap.Logger) *PagesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PagesHandler{catalog: catalog, renderer: renderer, metrics: metrics, logger: logger}
}

// Show handles GET for every route and for unmatched paths. The route
// table decides; denied and unmatched paths both render not-found.
func (h *PagesHandler) Show(c *fiber.Ctx) error {
	s, ok := auth.SessionFromContext(c)
	if !ok {
		return fiber.ErrInternalServerError
	}
	ctx := c.UserContext()

	decision, expired := s.Gate.Authorize(ctx, c.Path(), nil)
	h.metrics.RecordNavigation(decision.Route.Name, string(decision.Outcome))
	if expired {
		return c.Redirect(session.LandingPath+"?notice=expired", fiber.StatusSeeOther)
	}
	if !decision.Allowed() {
		return h.renderer.Render(c, fiber.StatusNotFound, views.Data{
			Page:    pages.NotFound(decision.Path),
			Session: s.Snapshot(),
		})
	}

	query := queryValues(c)
	page, err := h.catalog.Load(ctx, decision, s.Snapshot(), query)
	if err != nil {
		if gateway.StatusOf(err) == fiber.StatusUnauthorized {
			return signedOutByBackend(c, s, h.logger)
		}
		return err
	}
	return h.renderer.Render(c, fiber.StatusOK, views.Data{
		Page:    page,
		Session: s.Snapshot(),
		Notice:  notices[query.Get("notice")],
	})
}

// signedOutByBackend ends a session the gateway no longer accepts.
func signedOutByBackend(c *fiber.Ctx, s *auth.Session, logger *zap.Logger) error {
	snap := s.Snapshot()
	logger.Info("gateway rejected session token", observability.Identity(snap.Username, snap.Role)...)
	if err := s.Gate.SignOut(c.UserContext(), nil); err != nil {
		logger.Warn("sign out after gateway rejection", zap.Error(err))
	}
	return c.Redirect(session.LandingPath+"?notice=expired", fiber.StatusSeeOther)
}

// gatewayFailure signs the visitor out when the gateway rejected their
// token and passes any other error on.
func gatewayFailure(c *fiber.Ctx, err error, logger *zap.Logger) error {
	if gateway.StatusOf(err) == fiber.StatusUnauthorized {
		if s, ok := auth.SessionFromContext(c); ok {
			return signedOutByBackend(c, s, logger)
		}
	}
	return err
}

func queryValues(c *fiber.Ctx) url.Values {
	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return url.Values{}
	}
	return values
}

func queryValuesOf(path string) url.Values {
	u, err := url.Parse(path)
	if err != nil {
		return url.Values{}
	}
	return u.Query()
}
