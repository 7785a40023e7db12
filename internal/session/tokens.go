package session

import (
	"context"
	"errors"
	"time"
)

// Tokens derives identity values from whatever token the store currently
// holds. Every accessor reads the store afresh and returns the zero value
// instead of an error, so views can render the anonymous state
// unconditionally.
type Tokens struct {
	store TokenStore
	now   Clock
}

// NewTokens wraps store. A nil clock defaults to time.Now.
func NewTokens(store TokenStore, now Clock) *Tokens {
	if now == nil {
		now = time.Now
	}
	return &Tokens{store: store, now: now}
}

// Load returns the raw token and its claims. It distinguishes absence
// (ErrNoToken), undecodable tokens (*MalformedTokenError) and storage errors.
func (t *Tokens) Load(ctx context.Context) (string, Claims, error) {
	token, err := t.store.Get(ctx)
	if err != nil {
		return "", Claims{}, err
	}
	if token == "" {
		return "", Claims{}, ErrNoToken
	}
	claims, err := Decode(token)
	if err != nil {
		return token, Claims{}, err
	}
	return token, claims, nil
}

// Payload returns the decoded claims of the stored token, if any.
func (t *Tokens) Payload(ctx context.Context) (Claims, bool) {
	_, claims, err := t.Load(ctx)
	if err != nil {
		return Claims{}, false
	}
	return claims, true
}

// UserRole returns the role claim or "".
func (t *Tokens) UserRole(ctx context.Context) string {
	claims, _ := t.Payload(ctx)
	return string(claims.Role)
}

// UserID returns the userId claim or "".
func (t *Tokens) UserID(ctx context.Context) string {
	claims, _ := t.Payload(ctx)
	return claims.UserID
}

// Username returns the sub claim or "".
func (t *Tokens) Username(ctx context.Context) string {
	claims, _ := t.Payload(ctx)
	return claims.Username
}

// IsValid is true iff a stored token decodes and exp*1000 > now in ms.
func (t *Tokens) IsValid(ctx context.Context) bool {
	claims, ok := t.Payload(ctx)
	if !ok {
		return false
	}
	return !claims.Expired(t.now())
}

// Validate returns nil for a usable session token, ErrNoToken when nothing
// is stored, *MalformedTokenError for undecodable or incomplete tokens and
// *ExpiredSessionError once exp has passed.
func (t *Tokens) Validate(ctx context.Context) (Claims, error) {
	_, claims, err := t.Load(ctx)
	if err != nil {
		return Claims{}, err
	}
	if !claims.Complete() {
		return claims, &MalformedTokenError{Reason: "required claims missing"}
	}
	if claims.Expired(t.now()) {
		return claims, &ExpiredSessionError{Username: claims.Username, ExpiredAt: claims.ExpiresAt}
	}
	return claims, nil
}

func isAbsent(err error) bool {
	return errors.Is(err, ErrNoToken)
}
