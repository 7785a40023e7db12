// Package gateway calls the bank's REST API gateway on behalf of the
// signed-in user.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/securebank/bank-portal/internal/session"
)

const requestIDHeader = "X-Request-ID"

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	// Tokens is the store consulted when the request context carries none.
	Tokens     session.TokenStore
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// Client is a thin typed wrapper over the gateway's REST endpoints.
type Client struct {
	http   *resty.Client
	tokens session.TokenStore
	logger *zap.Logger
}

// New builds a gateway client.
func New(opts Options) *Client {
	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	if opts.RetryCount > 0 {
		rc.SetRetryCount(opts.RetryCount)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{http: rc, tokens: opts.Tokens, logger: logger}
	rc.OnBeforeRequest(c.attachCredentials)
	return c
}

type tokenStoreKey struct{}
type anonymousKey struct{}
type requestIDKey struct{}

// WithTokenStore makes calls made with ctx read their bearer token from
// store. The portal binds each request's cookie store this way.
func WithTokenStore(ctx context.Context, store session.TokenStore) context.Context {
	return context.WithValue(ctx, tokenStoreKey{}, store)
}

// WithRequestID forwards an inbound request id to the gateway.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func anonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonymousKey{}, true)
}

// attachCredentials runs before every request. The token is read from the
// store each time, so a token removed by sign-out is never re-sent.
func (c *Client) attachCredentials(_ *resty.Client, r *resty.Request) error {
	ctx := r.Context()

	reqID, _ := ctx.Value(requestIDKey{}).(string)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	r.SetHeader(requestIDHeader, reqID)

	if skip, _ := ctx.Value(anonymousKey{}).(bool); skip {
		return nil
	}

	store, _ := ctx.Value(tokenStoreKey{}).(session.TokenStore)
	if store == nil {
		store = c.tokens
	}
	if store == nil {
		return nil
	}

	token, err := store.Get(ctx)
	switch {
	case err == nil && token != "":
		r.SetHeader("Authorization", "Bearer "+token)
	case err != nil && !errors.Is(err, session.ErrNoToken):
		c.logger.Warn("read token for gateway call", zap.Error(err), zap.String("request_id", reqID))
	}
	return nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx)
}

func (c *Client) publicRequest(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(anonymous(ctx))
}
