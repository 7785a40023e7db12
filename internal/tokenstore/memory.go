package tokenstore

import (
	"context"
	"sync"
	"time"

	"github.com/securebank/bank-portal/internal/session"
)

// Memory keeps one token in process memory and honours the expiry hint.
type Memory struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	ttl       time.Duration
	now       session.Clock
}

// NewMemory builds an in-memory token store.
func NewMemory(cfg Config) *Memory {
	return &Memory{ttl: ttlOrDefault(cfg.TTL, 0), now: time.Now}
}

// WithClock replaces the store's clock.
func (m *Memory) WithClock(now session.Clock) *Memory {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
	return m
}

func (m *Memory) Set(_ context.Context, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.expiresAt = m.now().Add(ttlOrDefault(ttl, m.ttl))
	return nil
}

func (m *Memory) Get(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", session.ErrNoToken
	}
	if !m.now().Before(m.expiresAt) {
		m.token = ""
		return "", session.ErrNoToken
	}
	return m.token, nil
}

func (m *Memory) Remove(_ context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.expiresAt = time.Time{}
	m.mu.Unlock()
	return nil
}
