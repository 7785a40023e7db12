package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/securebank/bank-portal/internal/auth"
	"github.com/securebank/bank-portal/internal/domain"
	"github.com/securebank/bank-portal/internal/gateway"
	"github.com/securebank/bank-portal/internal/observability"
	"github.com/securebank/bank-portal/internal/session"
	apperrors "github.com/securebank/bank-portal/pkg/util"
)

// ProfileGateway edits and closes the signed-in user's profile.
type ProfileGateway interface {
	UpdateUser(ctx context.Context, userID string, update domain.UserUpdate) (domain.UserDetails, error)
	Authenticate(ctx context.Context, req domain.AuthenticationRequest) (string, error)
	DeactivateUser(ctx context.Context, userID, currentPassword string) error
}

type profileForm struct {
	Email       string `form:"email"`
	FirstName   string `form:"firstName"`
	LastName    string `form:"lastName"`
	Phone       string `form:"phone"`
	DateOfBirth string `form:"dateOfBirth"`
	Address     string `form:"address"`
	City        string `form:"city"`
	State       string `form:"state"`
	ZipCode     string `form:"zipCode"`
}

func (f profileForm) update() domain.UserUpdate {
	trim := strings.TrimSpace
	return domain.UserUpdate{
		Email:       trim(f.Email),
		FirstName:   trim(f.FirstName),
		LastName:    trim(f.LastName),
		Phone:       trim(f.Phone),
		DateOfBirth: trim(f.DateOfBirth),
		Address:     trim(f.Address),
		City:        trim(f.City),
		State:       trim(f.State),
		ZipCode:     trim(f.ZipCode),
	}
}

// UsersHandler serves the profile and deactivation forms of the settings view.
type UsersHandler struct {
	gateway ProfileGateway
	logger  *zap.Logger
}

// NewUsersHandler constructs handler.
func NewUsersHandler(gw ProfileGateway, logger *zap.Logger) *UsersHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsersHandler{gateway: gw, logger: logger}
}

// UpdateProfile handles POST /user-settings. Blank fields are left as they are.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	s, ok := auth.SessionFromContext(c)
	if !ok {
		return fiber.ErrInternalServerError
	}
	var form profileForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	update := form.update()
	if update == (domain.UserUpdate{}) {
		return apperrors.NewValidationError("nothing to update", nil)
	}
	if update.Email != "" && !strings.Contains(update.Email, "@") {
		return apperrors.NewValidationError("email address is invalid", map[string]any{"email": update.Email})
	}

	if _, err := h.gateway.UpdateUser(c.UserContext(), s.Snapshot().UserID, update); err != nil {
		return gatewayFailure(c, err, h.logger)
	}
	return c.Redirect("/user-settings?notice=profile-updated", fiber.StatusSeeOther)
}

// Deactivate handles POST /user-settings/deactivate. The current password
// is checked first so a wrong one leaves the session in place.
func (h *UsersHandler) Deactivate(c *fiber.Ctx) error {
	s, ok := auth.SessionFromContext(c)
	if !ok {
		return fiber.ErrInternalServerError
	}
	password := c.FormValue("currentPassword")
	if password == "" {
		return apperrors.NewValidationError("current password is required", nil)
	}
	snap := s.Snapshot()
	ctx := c.UserContext()

	_, err := h.gateway.Authenticate(ctx, domain.AuthenticationRequest{Username: snap.Username, Password: password})
	if err != nil {
		if status := gateway.StatusOf(err); status == fiber.StatusUnauthorized || status == fiber.StatusForbidden {
			return apperrors.NewValidationError("Incorrect current password.", nil)
		}
		return err
	}
	if err := h.gateway.DeactivateUser(ctx, snap.UserID, password); err != nil {
		return gatewayFailure(c, err, h.logger)
	}

	h.logger.Info("online account closed", observability.Identity(snap.Username, snap.Role)...)
	if err := s.Gate.SignOut(ctx, nil); err != nil {
		h.logger.Warn("sign out after deactivation", zap.Error(err))
	}
	return c.Redirect(session.LandingPath+"?notice=account-closed", fiber.StatusSeeOther)
}
