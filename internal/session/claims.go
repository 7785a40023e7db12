package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Role is the advisory role claim issued by the authentication service.
// The backend re-checks every privileged call; the client only uses it to
// pick a landing view.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// Claim names consumed from the token payload.
const (
	ClaimSubject = "sub"
	ClaimUserID  = "userId"
	ClaimRole    = "role"
	ClaimExpiry  = "exp"
)

// Claims is the decoded token payload.
type Claims struct {
	Username  string
	UserID    string
	Role      Role
	ExpiresAt time.Time
	// Raw keeps every payload claim, including the ones not mapped above.
	Raw jwt.MapClaims
}

// Complete reports whether all identity claims and the expiry are present.
func (c Claims) Complete() bool {
	return c.Username != "" && c.UserID != "" && c.Role != "" && !c.ExpiresAt.IsZero()
}

// Expired compares exp against now at millisecond precision.
func (c Claims) Expired(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return true
	}
	return c.ExpiresAt.UnixMilli() <= now.UnixMilli()
}

// Snapshot converts the claims into a session snapshot. Incomplete claims
// produce the anonymous snapshot.
func (c Claims) Snapshot() Snapshot {
	if !c.Complete() {
		return Snapshot{}
	}
	return Snapshot{UserID: c.UserID, Role: string(c.Role), Username: c.Username}
}

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

var stdToURLAlphabet = strings.NewReplacer("+", "-", "/", "_")

// Decode parses the payload segment of token without verifying its
// signature. Integrity is the issuing backend's responsibility.
func Decode(token string) (Claims, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return Claims{}, &MalformedTokenError{Reason: fmt.Sprintf("expected 3 segments, got %d", len(parts))}
	}
	if parts[1] == "" {
		return Claims{}, &MalformedTokenError{Reason: "empty payload segment"}
	}

	raw, err := segmentParser.DecodeSegment(stdToURLAlphabet.Replace(parts[1]))
	if err != nil {
		return Claims{}, &MalformedTokenError{Reason: "payload is not base64url", Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload jwt.MapClaims
	if err := dec.Decode(&payload); err != nil {
		return Claims{}, &MalformedTokenError{Reason: "payload is not a JSON object", Err: err}
	}
	if payload == nil {
		return Claims{}, &MalformedTokenError{Reason: "payload is not a JSON object"}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Claims{}, &MalformedTokenError{Reason: "trailing data after payload", Err: err}
	}

	return claimsFromPayload(payload), nil
}

func claimsFromPayload(payload jwt.MapClaims) Claims {
	claims := Claims{Raw: payload}

	if sub, err := payload.GetSubject(); err == nil {
		claims.Username = sub
	}
	if role, ok := payload[ClaimRole].(string); ok {
		claims.Role = Role(role)
	}
	claims.UserID = stringifyID(payload[ClaimUserID])

	if exp, err := payload.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims
}

// stringifyID accepts the string or numeric forms of the userId claim.
func stringifyID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	case float64:
		return fmt.Sprintf("%.0f", id)
	default:
		return ""
	}
}
