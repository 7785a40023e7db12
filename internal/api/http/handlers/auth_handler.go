package handlers

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/securebank/bank-portal/internal/api/http/views"
	"github.com/securebank/bank-portal/internal/auth"
	"github.com/securebank/bank-portal/internal/domain"
	"github.com/securebank/bank-portal/internal/pages"
	"github.com/securebank/bank-portal/internal/service"
	"github.com/securebank/bank-portal/internal/session"
)

// AuthHandler serves the sign-in, sign-up, sign-out and password forms.
type AuthHandler struct {
	auth     *service.AuthService
	catalog  *pages.Catalog
	routes   *session.RouteTable
	renderer *views.Renderer
	logger   *zap.Logger
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, catalog *pages.Catalog, routes *session.RouteTable, renderer *views.Renderer, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: authService, catalog: catalog, routes: routes, renderer: renderer, logger: logger}
}

// SignIn handles POST /auth/signin.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	s, ok := auth.SessionFromContext(c)
	if !ok {
		return fiber.ErrInternalServerError
	}
	username := c.FormValue("username")
	landing, err := h.auth.SignIn(c.UserContext(), s.Gate, username, c.FormValue("password"))
	if err != nil {
		return h.formFailure(c, s, "/signin", err, map[string]string{"username": username})
	}
	return c.Redirect(landing, fiber.StatusSeeOther)
}

// SignUp handles POST /auth/signup.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	s, ok := auth.SessionFromContext(c)
	if !ok {
		return fiber.ErrInternalServerError
	}
	req := domain.RegisterRequest{
		Username: c.FormValue("username"),
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
	}
	landing, err := h.auth.SignUp(c.UserContext(), s.Gate, req)
	if err != nil {
		return h.formFailure(c, s, "/signup", err, map[string]string{"username": req.Username, "email": req.Email})
	}
	return c.Redirect(landing, fiber.StatusSeeOther)
}

// SignOut handles POST /auth/signout.
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	s, ok := auth.SessionFromContext(c)
	if !ok {
		return fiber.ErrInternalServerError
	}
	landing := session.LandingPath
	if err := s.Gate.SignOut(c.UserContext(), func(path string) { landing = path }); err != nil {
		h.logger.Warn("sign out", zap.Error(err))
	}
	return c.Redirect(landing, fiber.StatusSeeOther)
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	s, ok := auth.SessionFromContext(c)
	if !ok {
		return fiber.ErrInternalServerError
	}
	who := c.FormValue("emailOrUsername")
	if err := h.auth.ForgotPassword(c.UserContext(), who); err != nil {
		return h.formFailure(c, s, "/password-reset-request", err, map[string]string{"emailOrUsername": who})
	}
	return c.Redirect("/password-reset-request?notice=reset-sent", fiber.StatusSeeOther)
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	s, ok := auth.SessionFromContext(c)
	if !ok {
		return fiber.ErrInternalServerError
	}
	token := c.FormValue("token")
	err := h.auth.ResetPassword(c.UserContext(), token, c.FormValue("password"), c.FormValue("confirm"))
	if err != nil {
		return h.formFailure(c, s, "/reset-password-form?token="+url.QueryEscape(token), err, nil)
	}
	return c.Redirect("/signin?notice=password-updated", fiber.StatusSeeOther)
}

// ResendConfirmation handles POST /auth/resend-confirmation.
func (h *AuthHandler) ResendConfirmation(c *fiber.Ctx) error {
	s, ok := auth.SessionFromContext(c)
	if !ok {
		return fiber.ErrInternalServerError
	}
	if err := h.auth.ResendConfirmation(c.UserContext(), s.Snapshot().Username); err != nil {
		return h.formFailure(c, s, "/user-profile", err, nil)
	}
	return c.Redirect("/user-profile?notice=confirmation-sent", fiber.StatusSeeOther)
}

// formFailure re-renders the form page with the failure message. Errors
// other than *service.AuthenticationFailure go to the error middleware.
func (h *AuthHandler) formFailure(c *fiber.Ctx, s *auth.Session, path string, err error, values map[string]string) error {
	var failure *service.AuthenticationFailure
	if !errors.As(err, &failure) {
		return err
	}

	decision := h.routes.Resolve(path, s.Gate.Status() == session.StatusAuthenticated)
	page, loadErr := h.catalog.Load(c.UserContext(), decision, s.Snapshot(), queryValuesOf(path))
	if loadErr != nil {
		return loadErr
	}

	status := fiber.StatusBadRequest
	if failure.Status == fiber.StatusUnauthorized {
		status = fiber.StatusUnauthorized
	}
	return h.renderer.Render(c, status, views.Data{
		Page:    page,
		Session: s.Snapshot(),
		Error:   failure.Message,
		Values:  values,
	})
}
