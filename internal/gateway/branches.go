package gateway

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/securebank/bank-portal/internal/domain"
)

// Branches lists bank branches. page is zero based.
func (c *Client) Branches(ctx context.Context, page int) ([]domain.Branch, error) {
	var out []domain.Branch
	resp, err := c.publicRequest(ctx).
		SetQueryParam("page", strconv.Itoa(page)).
		SetResult(&out).
		Get("/api/v1/branch")
	return out, check(resp, err)
}

func (c *Client) Bankers(ctx context.Context, branchID string) ([]domain.Banker, error) {
	var out []domain.Banker
	resp, err := c.publicRequest(ctx).
		SetQueryParam("branchId", branchID).
		SetResult(&out).
		Get("/api/v1/banker")
	return out, check(resp, err)
}

// CreateAppointment books a banker for the signed-in user.
func (c *Client) CreateAppointment(ctx context.Context, req domain.AppointmentRequest) (domain.Appointment, error) {
	var out domain.Appointment
	resp, err := c.request(ctx).
		SetHeader(idempotencyHeader, uuid.NewString()).
		SetBody(req).
		SetResult(&out).
		Post("/api/v1/appointment")
	return out, check(resp, err)
}
