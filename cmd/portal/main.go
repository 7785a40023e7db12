package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/securebank/bank-portal/internal/api/http"
	"github.com/securebank/bank-portal/internal/config"
	"github.com/securebank/bank-portal/internal/events"
	"github.com/securebank/bank-portal/internal/gateway"
	"github.com/securebank/bank-portal/internal/observability"
	"github.com/securebank/bank-portal/internal/persistence"
	"github.com/securebank/bank-portal/internal/service"
	"github.com/securebank/bank-portal/internal/session"
	"github.com/securebank/bank-portal/internal/tokenstore"
	"github.com/securebank/bank-portal/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, "portal")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.OpenAudit(ctx, cfg.Postgres, "portal", logger)
	if err != nil {
		logger.Fatal("failed to open audit store", zap.Error(err))
	}
	defer pg.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	auditService := service.NewAuditService(service.AuditDependencies{
		Repo:    pg.AuditRepository(),
		Logger:  logger,
		Metrics: metrics,
		Source:  "portal",
	})
	stopAudit := worker.StartAuditWorker(ctx, auditService, dispatcher)
	defer stopAudit()

	storeCfg := tokenstore.Config{
		Driver: cfg.Session.StoreOr(tokenstore.DriverCookie),
		TTL:    cfg.Session.TokenTTL(),
		Cookie: &tokenstore.CookieConfig{
			Name:       cfg.Session.CookieName,
			HolderName: cfg.Session.HolderName,
			Secure:     cfg.Session.CookieSecure,
			Domain:     cfg.Session.CookieDomain,
		},
	}

	var redis *persistence.Redis
	var stores func(c *fiber.Ctx) session.TokenStore
	switch storeCfg.Driver {
	case tokenstore.DriverCookie:
		stores = func(c *fiber.Ctx) session.TokenStore { return tokenstore.NewCookie(c, storeCfg) }
	case tokenstore.DriverRedis:
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		holders := redis.TokenStore(cfg.Session)
		stores = func(c *fiber.Ctx) session.TokenStore { return tokenstore.NewHolder(c, holders, storeCfg) }
	default:
		logger.Fatal("portal supports the cookie and redis session stores", zap.String("store", storeCfg.Driver))
	}

	client := gateway.New(gateway.Options{
		BaseURL:    cfg.Gateway.BaseURL,
		Timeout:    cfg.Gateway.Timeout(),
		RetryCount: cfg.Gateway.RetryCount,
		Logger:     logger,
	})

	app, err := httptransport.NewServer(httptransport.ServerDeps{
		Config:     cfg,
		Logger:     logger,
		Metrics:    metrics,
		Gateway:    client,
		Dispatcher: dispatcher,
		Stores:     stores,
		Postgres:   pg,
		Redis:      redis,
		Audit:      auditService,
	})
	if err != nil {
		logger.Fatal("failed to build portal", zap.Error(err))
	}

	go func() {
		logger.Info("portal listening", zap.String("addr", cfg.App.Addr()), zap.String("store", storeCfg.Driver))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
