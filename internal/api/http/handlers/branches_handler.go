package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/securebank/bank-portal/internal/auth"
	"github.com/securebank/bank-portal/internal/domain"
	apperrors "github.com/securebank/bank-portal/pkg/util"
)

// Layouts a datetime-local input may post.
var timeslotInputs = []string{"2006-01-02T15:04", domain.TimeslotLayout}

// BranchesGateway books appointments with bankers.
type BranchesGateway interface {
	CreateAppointment(ctx context.Context, req domain.AppointmentRequest) (domain.Appointment, error)
}

// BranchesHandler serves the appointment form of the bankers view.
type BranchesHandler struct {
	gateway BranchesGateway
	logger  *zap.Logger
	now     func() time.Time
}

// NewBranchesHandler constructs handler.
func NewBranchesHandler(gw BranchesGateway, logger *zap.Logger) *BranchesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BranchesHandler{gateway: gw, logger: logger, now: time.Now}
}

// BookAppointment handles POST /branches/:branchId/appointments.
func (h *BranchesHandler) BookAppointment(c *fiber.Ctx) error {
	s, ok := auth.SessionFromContext(c)
	if !ok {
		return fiber.ErrInternalServerError
	}
	bankerID := strings.TrimSpace(c.FormValue("bankerId"))
	if bankerID == "" {
		return apperrors.NewValidationError("banker is required", nil)
	}
	slot, err := parseTimeslot(c.FormValue("timeslot"))
	if err != nil {
		return err
	}
	if !slot.After(h.now()) {
		return apperrors.NewValidationError("appointment must be in the future", map[string]any{"timeslot": c.FormValue("timeslot")})
	}

	branchID := c.Params("branchId")
	_, err = h.gateway.CreateAppointment(c.UserContext(), domain.AppointmentRequest{
		UserID:      domain.ID(s.Snapshot().UserID),
		BranchID:    domain.ID(branchID),
		BankerID:    domain.ID(bankerID),
		Timeslot:    slot.Format(domain.TimeslotLayout),
		Description: strings.TrimSpace(c.FormValue("description")),
	})
	if err != nil {
		return gatewayFailure(c, err, h.logger)
	}
	return c.Redirect("/branches/"+branchID+"/bankers?notice=appointment-booked", fiber.StatusSeeOther)
}

// parseTimeslot reads a local wall-clock time.
func parseTimeslot(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeslotInputs {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.NewValidationError("timeslot is not a valid date and time", map[string]any{"timeslot": raw})
}
