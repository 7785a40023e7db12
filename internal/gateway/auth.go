package gateway

import (
	"context"
	"errors"
	"strings"

	"github.com/securebank/bank-portal/internal/domain"
)

const authBase = "/api/v1/auth"

// ErrEmptyToken is returned when the gateway answers a sign-in with 2xx
// but no token.
var ErrEmptyToken = errors.New("gateway returned no token")

// Authenticate exchanges credentials for a bearer token.
func (c *Client) Authenticate(ctx context.Context, req domain.AuthenticationRequest) (string, error) {
	return c.issueToken(ctx, authBase+"/authenticate", req)
}

// Register creates a user and returns the token issued for it.
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (string, error) {
	return c.issueToken(ctx, authBase+"/register", req)
}

func (c *Client) issueToken(ctx context.Context, path string, body any) (string, error) {
	var out domain.AuthenticationResponse
	resp, err := c.publicRequest(ctx).SetBody(body).SetResult(&out).Post(path)
	if err := check(resp, err); err != nil {
		return "", err
	}
	token := strings.TrimSpace(out.Token)
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

// ForgotPassword asks the backend to mail a reset link.
func (c *Client) ForgotPassword(ctx context.Context, emailOrUsername string) error {
	resp, err := c.publicRequest(ctx).
		SetBody(domain.ForgotPasswordRequest{EmailOrUsername: emailOrUsername}).
		Post(authBase + "/forgot-password")
	return check(resp, err)
}

// ResetPassword completes a reset with the mailed token.
func (c *Client) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	resp, err := c.publicRequest(ctx).SetBody(req).Post(authBase + "/reset-password")
	return check(resp, err)
}

// VerificationStatus reports whether the user's email is confirmed.
func (c *Client) VerificationStatus(ctx context.Context, emailOrUsername string) (bool, error) {
	var out struct {
		Verified   *bool `json:"verified"`
		IsVerified *bool `json:"isVerified"`
	}
	resp, err := c.request(ctx).
		SetQueryParam("emailOrUsername", emailOrUsername).
		SetResult(&out).
		Get(authBase + "/verification-status")
	if err := check(resp, err); err != nil {
		return false, err
	}
	switch {
	case out.Verified != nil:
		return *out.Verified, nil
	case out.IsVerified != nil:
		return *out.IsVerified, nil
	}
	return strings.TrimSpace(resp.String()) == "true", nil
}

// ResendConfirmation re-sends the email confirmation link.
func (c *Client) ResendConfirmation(ctx context.Context, emailOrUsername string) error {
	resp, err := c.request(ctx).
		SetQueryParam("emailOrUsername", emailOrUsername).
		Post(authBase + "/resend-confirmation")
	return check(resp, err)
}
