package tokenstore

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/securebank/bank-portal/internal/session"
)

const (
	defaultCookieName = "token"
	defaultHolderName = "holder"
)

// Cookie stores the token in a browser cookie for the lifetime of one
// request. Writes made during the request are visible to later reads in the
// same request.
type Cookie struct {
	c       *fiber.Ctx
	cfg     CookieConfig
	ttl     time.Duration
	now     session.Clock
	pending *string
}

// NewCookie binds a cookie store to the current request.
func NewCookie(c *fiber.Ctx, cfg Config) *Cookie {
	return &Cookie{c: c, cfg: cookieConfig(cfg), ttl: ttlOrDefault(cfg.TTL, 0), now: time.Now}
}

func cookieConfig(cfg Config) CookieConfig {
	out := CookieConfig{}
	if cfg.Cookie != nil {
		out = *cfg.Cookie
	}
	if out.Name == "" {
		out.Name = defaultCookieName
	}
	if out.HolderName == "" {
		out.HolderName = defaultHolderName
	}
	return out
}

func (s *Cookie) Set(_ context.Context, token string, ttl time.Duration) error {
	writeCookie(s.c, s.cfg, s.cfg.Name, token, s.now().Add(ttlOrDefault(ttl, s.ttl)))
	s.pending = &token
	return nil
}

func (s *Cookie) Get(_ context.Context) (string, error) {
	if s.pending != nil {
		if *s.pending == "" {
			return "", session.ErrNoToken
		}
		return *s.pending, nil
	}
	token := s.c.Cookies(s.cfg.Name)
	if token == "" {
		return "", session.ErrNoToken
	}
	return token, nil
}

func (s *Cookie) Remove(_ context.Context) error {
	expireCookie(s.c, s.cfg, s.cfg.Name)
	empty := ""
	s.pending = &empty
	return nil
}

// Holder keeps the token in Redis and only an opaque holder id in the
// browser, so the JWT never reaches the client.
type Holder struct {
	c     *fiber.Ctx
	cfg   CookieConfig
	redis *Redis
	ttl   time.Duration
	now   session.Clock
	id    string
}

// NewHolder binds a redis-backed store to the current request's holder id.
func NewHolder(c *fiber.Ctx, redis *Redis, cfg Config) *Holder {
	return &Holder{
		c:     c,
		cfg:   cookieConfig(cfg),
		redis: redis,
		ttl:   ttlOrDefault(cfg.TTL, 0),
		now:   time.Now,
		id:    c.Cookies(cookieConfig(cfg).HolderName),
	}
}

func (h *Holder) Set(ctx context.Context, token string, ttl time.Duration) error {
	ttl = ttlOrDefault(ttl, h.ttl)
	if h.id == "" {
		h.id = uuid.NewString()
	}
	if err := h.redis.For(h.id).Set(ctx, token, ttl); err != nil {
		return err
	}
	writeCookie(h.c, h.cfg, h.cfg.HolderName, h.id, h.now().Add(ttl))
	return nil
}

func (h *Holder) Get(ctx context.Context) (string, error) {
	if h.id == "" {
		return "", session.ErrNoToken
	}
	return h.redis.For(h.id).Get(ctx)
}

func (h *Holder) Remove(ctx context.Context) error {
	if h.id == "" {
		return nil
	}
	err := h.redis.For(h.id).Remove(ctx)
	expireCookie(h.c, h.cfg, h.cfg.HolderName)
	h.id = ""
	return err
}

func writeCookie(c *fiber.Ctx, cfg CookieConfig, name, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.Domain,
		Expires:  expires,
		Secure:   cfg.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// expireCookie overwrites the cookie on the same path it was written with;
// fiber's ClearCookie omits the path.
func expireCookie(c *fiber.Ctx, cfg CookieConfig, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		Expires:  time.Unix(0, 0),
		Secure:   cfg.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
