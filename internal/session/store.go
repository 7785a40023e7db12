package session

import (
	"context"
	"time"
)

// DefaultTokenTTL is the client-side storage expiry hint for a freshly
// issued token. The authoritative expiry is the token's exp claim.
const DefaultTokenTTL = 24 * time.Hour

// TokenStore holds the bearer token across reloads.
type TokenStore interface {
	// Set stores token, replacing any prior value. ttl is a storage hint.
	Set(ctx context.Context, token string, ttl time.Duration) error
	// Get returns the stored token or ErrNoToken.
	Get(ctx context.Context) (string, error)
	// Remove purges the stored token. Removing nothing is not an error.
	Remove(ctx context.Context) error
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time
