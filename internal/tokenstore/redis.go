package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/securebank/bank-portal/internal/session"
)

// Redis holds tokens server-side, one key per holder (browser or device).
// Expiry is delegated to the key TTL.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis constructs a redis-backed store, connecting with cfg.Redis.
func NewRedis(cfg Config) (*Redis, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis configuration missing")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisWithClient(client, cfg), nil
}

// NewRedisWithClient reuses an existing client.
func NewRedisWithClient(client *redis.Client, cfg Config) *Redis {
	prefix := "bank-portal:token:"
	if cfg.Redis != nil && cfg.Redis.Prefix != "" {
		prefix = cfg.Redis.Prefix
	}
	return &Redis{client: client, prefix: prefix, ttl: ttlOrDefault(cfg.TTL, 0)}
}

// For returns the token store of one holder.
func (r *Redis) For(holder string) session.TokenStore {
	return &redisSlot{parent: r, key: r.prefix + holder}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

type redisSlot struct {
	parent *Redis
	key    string
}

func (s *redisSlot) Set(ctx context.Context, token string, ttl time.Duration) error {
	return s.parent.client.Set(ctx, s.key, token, ttlOrDefault(ttl, s.parent.ttl)).Err()
}

func (s *redisSlot) Get(ctx context.Context) (string, error) {
	token, err := s.parent.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", session.ErrNoToken
		}
		return "", err
	}
	return token, nil
}

func (s *redisSlot) Remove(ctx context.Context) error {
	return s.parent.client.Del(ctx, s.key).Err()
}
