package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/securebank/bank-portal/internal/api/http/handlers"
	"github.com/securebank/bank-portal/internal/auth"
	"github.com/securebank/bank-portal/internal/session"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Pages    *handlers.PagesHandler
	Auth     *handlers.AuthHandler
	Accounts *handlers.AccountsHandler
	Users    *handlers.UsersHandler
	Cards    *handlers.CardsHandler
	Loans    *handlers.LoansHandler
	Branches *handlers.BranchesHandler
	Sessions *auth.SessionMiddleware
	Routes   *session.RouteTable
}

// RegisterRoutes wires HTTP routes. Every view of the route table is
// registered behind the session middleware; the pages handler then asks
// the access gate whether it may be shown.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	web := app.Group("", cfg.Sessions.Handle)

	authGroup := web.Group("/auth")
	authGroup.Post("/signin", cfg.Auth.SignIn)
	authGroup.Post("/signup", cfg.Auth.SignUp)
	authGroup.Post("/signout", cfg.Auth.SignOut)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)
	authGroup.Post("/resend-confirmation", auth.RequireSession(), cfg.Auth.ResendConfirmation)

	web.Post("/accounts/:accountId/deposit", auth.RequireSession(), cfg.Accounts.Deposit)
	web.Post("/accounts/:accountId/transfer", auth.RequireSession(), cfg.Accounts.Transfer)
	web.Post("/accounts/open/:accountType", auth.RequireSession(), cfg.Accounts.OpenAccount)
	web.Post("/user-settings", auth.RequireSession(), cfg.Users.UpdateProfile)
	web.Post("/user-settings/deactivate", auth.RequireSession(), cfg.Users.Deactivate)
	web.Post("/createCard/:accountId/:creditOfferId", auth.RequireSession(), cfg.Cards.CreateCard)
	web.Post("/viewcard/:cardID/delete", auth.RequireSession(), cfg.Cards.DeleteCard)
	web.Post("/loans/apply", auth.RequireSession(), cfg.Loans.Apply)
	web.Post("/branches/:branchId/appointments", auth.RequireSession(), cfg.Branches.BookAppointment)

	for _, route := range cfg.Routes.Routes() {
		web.Get(route.Pattern, cfg.Pages.Show)
	}
	web.Get("/*", cfg.Pages.Show)
}
