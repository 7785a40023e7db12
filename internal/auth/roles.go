package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/securebank/bank-portal/internal/session"
	apperrors "github.com/securebank/bank-portal/pkg/util"
)

// RequireSession ensures the request carries an authenticated session.
// Form posts use it; page views go through the route table instead.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := SessionFromContext(c)
		if !ok || s.Gate.Status() != session.StatusAuthenticated {
			return apperrors.NewUnauthorized("sign in to continue")
		}
		return c.Next()
	}
}
