package tokenstore

import (
	"time"
)

// Driver identifiers supported by the token store factory.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverCookie = "cookie"
)

// Config describes the high level store selection parameters.
type Config struct {
	Driver string
	// TTL is the storage expiry hint applied when a caller passes none.
	TTL    time.Duration
	File   *FileConfig
	Redis  *RedisConfig
	Cookie *CookieConfig
}

// FileConfig locates the token file. Secret enables sealing.
type FileConfig struct {
	Path   string
	Secret string
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
	// Holder identifies the device or browser whose token is stored.
	Holder string
}

// CookieConfig controls the browser cookies written by the portal.
type CookieConfig struct {
	Name       string
	HolderName string
	Secure     bool
	Domain     string
}

func ttlOrDefault(ttl, fallback time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	if fallback > 0 {
		return fallback
	}
	return 24 * time.Hour
}
