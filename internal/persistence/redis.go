package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/securebank/bank-portal/internal/config"
	"github.com/securebank/bank-portal/internal/tokenstore"
)

// Redis wraps the go-redis client shared by the portal's holder token
// store and its readiness probe.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration. An
// unreachable server is logged, not fatal; the readiness probe reports it.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// TokenStore returns a holder-addressed token store on this client.
func (r *Redis) TokenStore(cfg config.SessionConfig) *tokenstore.Redis {
	return tokenstore.NewRedisWithClient(r.Client, tokenstore.Config{
		Driver: tokenstore.DriverRedis,
		TTL:    cfg.TokenTTL(),
		Redis:  &tokenstore.RedisConfig{Prefix: cfg.RedisPrefix},
	})
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
