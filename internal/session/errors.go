package session

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoToken is returned by a TokenStore when nothing is stored or the
	// stored value was purged by the storage layer's own expiry.
	ErrNoToken = errors.New("no token stored")
	// ErrPartialSnapshot rejects updates that would leave the session
	// neither fully authenticated nor fully anonymous.
	ErrPartialSnapshot = errors.New("session snapshot must be complete or empty")
)

// MalformedTokenError reports a token that is present but cannot be decoded.
type MalformedTokenError struct {
	Reason string
	Err    error
}

func (e *MalformedTokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed token: %s: %v", e.Reason, e.Err)
	}
	return "malformed token: " + e.Reason
}

func (e *MalformedTokenError) Unwrap() error {
	return e.Err
}

// ExpiredSessionError reports a decodable token whose exp claim has passed,
// or an authenticated session whose token disappeared from storage.
type ExpiredSessionError struct {
	Username  string
	ExpiredAt time.Time
}

func (e *ExpiredSessionError) Error() string {
	if e.ExpiredAt.IsZero() {
		return "session expired: token no longer available"
	}
	return fmt.Sprintf("session expired at %s", e.ExpiredAt.UTC().Format(time.RFC3339))
}

// IsMalformed reports whether err wraps a MalformedTokenError.
func IsMalformed(err error) bool {
	var target *MalformedTokenError
	return errors.As(err, &target)
}

// IsExpired reports whether err wraps an ExpiredSessionError.
func IsExpired(err error) bool {
	var target *ExpiredSessionError
	return errors.As(err, &target)
}
