package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/securebank/bank-portal/internal/config"
	"github.com/securebank/bank-portal/internal/repository"
)

// Postgres holds the audit trail's connection pool. A zero Postgres (no
// DSN configured) is valid; Enabled reports false and the audit trail
// only logs.
type Postgres struct {
	Pool *pgxpool.Pool
}

// OpenAudit connects the session audit store for application (reported to
// the server as application_name) and applies the embedded migrations when
// cfg asks for it.
func OpenAudit(ctx context.Context, cfg config.PostgresConfig, application string, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		logger.Warn("POSTGRES_DSN not provided; session audit rows will only be logged")
		return &Postgres{}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	poolCfg.ConnConfig.RuntimeParams["application_name"] = application
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	poolCfg.MaxConnIdleTime = seconds(cfg.ConnMaxIdleSec, poolCfg.MaxConnIdleTime)
	poolCfg.MaxConnLifetime = seconds(cfg.ConnMaxLifeSec, poolCfg.MaxConnLifetime)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	pg := &Postgres{Pool: pool}
	if err := pg.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("connected to postgres", zap.String("application", application))

	if cfg.RunMigrations {
		if err := RunMigrations(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return pg, nil
}

func seconds(n int32, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

// AuditRepository returns the audit repository backed by the pool, or nil
// when no database is configured.
func (p *Postgres) AuditRepository() repository.SessionAuditRepository {
	if !p.Enabled() {
		return nil
	}
	return repository.NewSessionAuditRepository(p.Pool)
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p.Enabled() {
		p.Pool.Close()
	}
}

// Enabled reports whether a pool was opened.
func (p *Postgres) Enabled() bool {
	return p != nil && p.Pool != nil
}

// Ping verifies database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	if !p.Enabled() {
		return errors.New("postgres not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return p.Pool.Ping(ctx)
}
