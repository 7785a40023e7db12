package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/securebank/bank-portal/internal/api/http/handlers"
	"github.com/securebank/bank-portal/internal/api/http/views"
	"github.com/securebank/bank-portal/internal/auth"
	"github.com/securebank/bank-portal/internal/config"
	"github.com/securebank/bank-portal/internal/events"
	"github.com/securebank/bank-portal/internal/gateway"
	"github.com/securebank/bank-portal/internal/observability"
	"github.com/securebank/bank-portal/internal/pages"
	"github.com/securebank/bank-portal/internal/persistence"
	"github.com/securebank/bank-portal/internal/service"
	"github.com/securebank/bank-portal/internal/session"
)

// ServerDeps bundles what the portal needs. Postgres and Redis are only
// used by the readiness probe and may be nil.
type ServerDeps struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Gateway    *gateway.Client
	Dispatcher events.Dispatcher
	Stores     auth.StoreFactory
	Postgres   *persistence.Postgres
	Redis      *persistence.Redis
	// Audit backs the activity view and may be nil.
	Audit *service.AuditService
}

// NewServer assembles the portal's fiber app.
func NewServer(deps ServerDeps) (*fiber.App, error) {
	renderer, err := views.New()
	if err != nil {
		return nil, err
	}

	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	cfg := deps.Config
	routes := pages.Table()
	catalog := pages.NewCatalog(deps.Gateway)
	health := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps.Postgres, deps.Redis, deps.Metrics)
	if deps.Audit != nil {
		catalog.WithHistory(deps.Audit)
		health.WithAudit(deps.Audit)
	}
	authService := service.NewAuthService(service.AuthDependencies{
		Gateway:  deps.Gateway,
		AdminURL: cfg.App.AdminPortalURL,
		Logger:   deps.Logger,
	})
	sessions := auth.NewSessionMiddleware(auth.SessionOptions{
		Stores:     deps.Stores,
		Routes:     routes,
		Dispatcher: deps.Dispatcher,
		Logger:     deps.Logger,
		Gate: session.Options{
			CheckInterval: cfg.Session.CheckInterval,
			TokenTTL:      cfg.Session.TokenTTL(),
		},
	})

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, deps.Logger, deps.Metrics, cfg.App.RequestTimeout(), renderer)
	RegisterRoutes(app, RouteConfig{
		Health:   health,
		Pages:    handlers.NewPagesHandler(catalog, renderer, deps.Metrics, deps.Logger),
		Auth:     handlers.NewAuthHandler(authService, catalog, routes, renderer, deps.Logger),
		Accounts: handlers.NewAccountsHandler(deps.Gateway, deps.Logger),
		Users:    handlers.NewUsersHandler(deps.Gateway, deps.Logger),
		Cards:    handlers.NewCardsHandler(deps.Gateway, deps.Logger),
		Loans:    handlers.NewLoansHandler(deps.Gateway, deps.Logger),
		Branches: handlers.NewBranchesHandler(deps.Gateway, deps.Logger),
		Sessions: sessions,
		Routes:   routes,
	})
	return app, nil
}
