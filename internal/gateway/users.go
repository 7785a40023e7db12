package gateway

import (
	"context"

	"github.com/securebank/bank-portal/internal/domain"
)

const usersBase = "/api/v1/users"

func (c *Client) GetUser(ctx context.Context, userID string) (domain.UserDetails, error) {
	var out domain.UserDetails
	resp, err := c.request(ctx).
		SetPathParam("userId", userID).
		SetResult(&out).
		Get(usersBase + "/{userId}")
	return out, check(resp, err)
}

// UpdateUser patches the profile and returns the stored result.
func (c *Client) UpdateUser(ctx context.Context, userID string, update domain.UserUpdate) (domain.UserDetails, error) {
	var out domain.UserDetails
	resp, err := c.request(ctx).
		SetPathParam("userId", userID).
		SetBody(update).
		SetResult(&out).
		Patch(usersBase + "/{userId}")
	return out, check(resp, err)
}

// DeactivateUser closes the user's online account.
func (c *Client) DeactivateUser(ctx context.Context, userID, currentPassword string) error {
	resp, err := c.request(ctx).
		SetPathParam("userId", userID).
		SetBody(domain.Deactivation{IsActive: false, CurrentPassword: currentPassword}).
		Patch(usersBase + "/{userId}")
	return check(resp, err)
}
