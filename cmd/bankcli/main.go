package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/securebank/bank-portal/internal/config"
	"github.com/securebank/bank-portal/internal/events"
	"github.com/securebank/bank-portal/internal/gateway"
	"github.com/securebank/bank-portal/internal/observability"
	"github.com/securebank/bank-portal/internal/pages"
	"github.com/securebank/bank-portal/internal/persistence"
	"github.com/securebank/bank-portal/internal/service"
	"github.com/securebank/bank-portal/internal/session"
	"github.com/securebank/bank-portal/internal/shell"
	"github.com/securebank/bank-portal/internal/tokenstore"
	"github.com/securebank/bank-portal/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	// Logs share the terminal with the prompt.
	if cfg.Logger.Output == "" {
		cfg.Logger.Output = "stderr"
	}

	logger, err := observability.NewLogger(cfg.Logger, "bankcli")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := tokenstore.New(tokenstore.Config{
		Driver: cfg.Session.StoreOr(tokenstore.DriverFile),
		TTL:    cfg.Session.TokenTTL(),
		File:   &tokenstore.FileConfig{Path: cfg.Session.FilePath, Secret: cfg.Session.FileSecret},
		Redis: &tokenstore.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Session.RedisPrefix,
			Holder:   cfg.Session.Holder,
		},
	})
	if err != nil {
		logger.Fatal("failed to open token store", zap.Error(err))
	}
	defer closeStore() //nolint:errcheck

	pg, err := persistence.OpenAudit(ctx, cfg.Postgres, "bankcli", logger)
	if err != nil {
		logger.Fatal("failed to open audit store", zap.Error(err))
	}
	defer pg.Close()

	dispatcher := events.NewInMemoryDispatcher()
	auditService := service.NewAuditService(service.AuditDependencies{
		Repo:    pg.AuditRepository(),
		Logger:  logger,
		Metrics: observability.NewMetrics(),
		Source:  "bankcli",
	})
	stopAudit := worker.StartAuditWorker(ctx, auditService, dispatcher)
	defer stopAudit()

	client := gateway.New(gateway.Options{
		BaseURL:    cfg.Gateway.BaseURL,
		Timeout:    cfg.Gateway.Timeout(),
		RetryCount: cfg.Gateway.RetryCount,
		Tokens:     store,
		Logger:     logger,
	})

	gate := session.NewGate(store, session.NewState(), session.Options{
		Routes:        pages.Table(),
		Dispatcher:    dispatcher,
		Logger:        logger,
		CheckInterval: cfg.Session.CheckInterval,
		TokenTTL:      cfg.Session.TokenTTL(),
	})

	app := shell.New(shell.Options{
		Gate: gate,
		Auth: service.NewAuthService(service.AuthDependencies{
			Gateway:  client,
			AdminURL: cfg.App.AdminPortalURL,
			Logger:   logger,
		}),
		Catalog:     pages.NewCatalog(client).WithHistory(auditService),
		Payments:    client,
		In:          os.Stdin,
		Out:         os.Stdout,
		Logger:      logger,
		Interactive: isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
	})

	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("terminal client stopped", zap.Error(err))
	}
}
