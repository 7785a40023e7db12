package session_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/securebank/bank-portal/internal/session"
	"github.com/securebank/bank-portal/internal/tokenstore"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func withPayload(payload string) string {
	return "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + ".sig"
}

func TestDecodeReadsClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := sign(t, jwt.MapClaims{"sub": "username", "userId": "123", "role": "admin", "exp": exp.Unix(), "tenant": "eu"})

	claims, err := session.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Username != "username" || claims.UserID != "123" || claims.Role != "admin" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if !claims.ExpiresAt.Equal(exp) {
		t.Fatalf("expected exp %v, got %v", exp, claims.ExpiresAt)
	}
	if claims.Raw["tenant"] != "eu" {
		t.Fatalf("extra claim not kept: %+v", claims.Raw)
	}
}

func TestDecodeAcceptsNumericUserID(t *testing.T) {
	claims, err := session.Decode(sign(t, jwt.MapClaims{"sub": "alice", "userId": 9007199254740993, "role": "CUSTOMER", "exp": 4102444800}))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.UserID != "9007199254740993" {
		t.Fatalf("expected exact numeric id, got %q", claims.UserID)
	}
}

func TestDecodeRejectsMalformedTokens(t *testing.T) {
	cases := map[string]string{
		"two segments":  "abc.def",
		"four segments": "a.b.c.d",
		"empty payload": "a..c",
		"not base64":    "a.@@@.c",
		"not json":      withPayload("hello"),
		"json array":    withPayload(`["sub"]`),
		"json null":     withPayload("null"),
		"trailing data": withPayload(`{"sub":"alice","userId":"1","role":"CUSTOMER","exp":4102444800}not-json`),
		"two objects":   withPayload(`{"sub":"alice"}{"sub":"bob"}`),
		"empty string":  "",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := session.Decode(token)
			if !session.IsMalformed(err) {
				t.Fatalf("expected malformed error, got %v", err)
			}
		})
	}
}

// normalized re-reads v through JSON so json.Number and float64 compare
// equal.
func normalized(t *testing.T, v any) any {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestDecodeReturnsEncodedClaims(t *testing.T) {
	cases := map[string]jwt.MapClaims{
		"minimal":    {"sub": "alice", "userId": "1", "role": "CUSTOMER", "exp": 4102444800},
		"numeric id": {"sub": "bob", "userId": 42, "role": "ADMIN", "exp": 4102444800, "iat": 1700000000},
		"bools and floats": {
			"sub": "carol", "userId": "7", "role": "CUSTOMER", "exp": 4102444800,
			"mfa": true, "locked": false, "score": 0.75,
		},
		"nested": {
			"sub": "dave", "userId": 9, "role": "CUSTOMER", "exp": 4102444800,
			"scope":   []any{"read", "write"},
			"profile": map[string]any{"branch": "north", "tier": 2, "flags": map[string]any{"beta": true}},
		},
		"null claim": {"sub": "erin", "userId": "3", "role": "CUSTOMER", "exp": 4102444800, "note": nil},
	}
	for name, encoded := range cases {
		t.Run(name, func(t *testing.T) {
			claims, err := session.Decode(sign(t, encoded))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got, want := normalized(t, claims.Raw), normalized(t, encoded); !reflect.DeepEqual(got, want) {
				t.Fatalf("claims changed in transit:\n got %v\nwant %v", got, want)
			}
		})
	}
}

func TestDecodeToleratesPaddingAndStdAlphabet(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte(`{"sub":"a?>","userId":"1","role":"CUSTOMER","exp":4102444800}`))
	claims, err := session.Decode("h." + payload + ".s")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Username != "a?>" {
		t.Fatalf("unexpected username %q", claims.Username)
	}
}

func TestExpiredComparesMilliseconds(t *testing.T) {
	exp := time.Unix(1700000000, 0)
	claims := session.Claims{ExpiresAt: exp}

	if claims.Expired(exp.Add(-time.Millisecond)) {
		t.Fatalf("expected valid one millisecond before exp")
	}
	if !claims.Expired(exp) {
		t.Fatalf("expected expired at exp")
	}
	if !(session.Claims{}).Expired(exp) {
		t.Fatalf("missing exp must count as expired")
	}
}

func TestSnapshotOfIncompleteClaimsIsAnonymous(t *testing.T) {
	claims := session.Claims{Username: "alice", Role: "CUSTOMER", ExpiresAt: time.Now()}
	if snap := claims.Snapshot(); !snap.Anonymous() {
		t.Fatalf("expected anonymous snapshot, got %+v", snap)
	}
}

func TestTokensAccessors(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := tokenstore.NewMemory(tokenstore.Config{})
	tokens := session.NewTokens(store, func() time.Time { return now })

	if tokens.Username(ctx) != "" || tokens.UserID(ctx) != "" || tokens.UserRole(ctx) != "" || tokens.IsValid(ctx) {
		t.Fatalf("empty store must read as anonymous")
	}

	_ = store.Set(ctx, sign(t, jwt.MapClaims{"sub": "username", "userId": "123", "role": "admin", "exp": now.Add(time.Hour).Unix()}), time.Hour)
	if tokens.Username(ctx) != "username" || tokens.UserID(ctx) != "123" || tokens.UserRole(ctx) != "admin" {
		t.Fatalf("unexpected accessors")
	}
	if !tokens.IsValid(ctx) {
		t.Fatalf("expected valid token")
	}

	_ = store.Set(ctx, sign(t, jwt.MapClaims{"sub": "username", "userId": "123", "role": "admin", "exp": now.Add(-time.Hour).Unix()}), time.Hour)
	if tokens.IsValid(ctx) {
		t.Fatalf("expected expired token to be invalid")
	}
	if _, err := tokens.Validate(ctx); !session.IsExpired(err) {
		t.Fatalf("expected expired error, got %v", err)
	}

	_ = store.Set(ctx, "garbage", time.Hour)
	if tokens.Username(ctx) != "" || tokens.IsValid(ctx) {
		t.Fatalf("malformed token must read as anonymous")
	}
	if _, err := tokens.Validate(ctx); !session.IsMalformed(err) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestValidateRequiresAllClaims(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemory(tokenstore.Config{})
	tokens := session.NewTokens(store, nil)

	_ = store.Set(ctx, sign(t, jwt.MapClaims{"sub": "alice", "role": "CUSTOMER", "exp": time.Now().Add(time.Hour).Unix()}), time.Hour)
	if _, err := tokens.Validate(ctx); !session.IsMalformed(err) {
		t.Fatalf("expected missing userId to be malformed, got %v", err)
	}
}
