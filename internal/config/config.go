package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the portal and the terminal
// client.
type Config struct {
	App      AppConfig
	Gateway  GatewayConfig
	Session  SessionConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	AdminPortalURL        string
}

// GatewayConfig locates the bank's REST API gateway.
type GatewayConfig struct {
	BaseURL        string
	TimeoutSeconds int
	RetryCount     int
}

// SessionConfig tunes token holding and the access gate.
type SessionConfig struct {
	Store         string
	TokenTTLDays  int
	CheckInterval time.Duration
	CookieName    string
	HolderName    string
	CookieSecure  bool
	CookieDomain  string
	FilePath      string
	FileSecret    string
	RedisPrefix   string
	Holder        string
}

// PostgresConfig holds DB connection values for the session audit trail.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
	// Output is a zap sink path such as "stdout", "stderr" or a file path.
	Output string
	// Format is "json" or "console".
	Format string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	checkInterval, err := time.ParseDuration(getEnv("SESSION_CHECK_INTERVAL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_CHECK_INTERVAL: %w", err)
	}
	if checkInterval <= 0 {
		return nil, fmt.Errorf("SESSION_CHECK_INTERVAL must be positive")
	}

	store := strings.ToLower(getEnv("SESSION_STORE", ""))
	switch store {
	case "", "cookie", "redis", "file", "memory":
	default:
		return nil, fmt.Errorf("invalid SESSION_STORE: %q", store)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "bank-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "3000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			AdminPortalURL:        getEnv("PORTAL_ADMIN_URL", "http://localhost:4200/admin-portal"),
		},
		Gateway: GatewayConfig{
			BaseURL:        strings.TrimRight(getEnv("API_GATEWAY_URL", "http://localhost:8765"), "/"),
			TimeoutSeconds: getEnvAsInt("API_GATEWAY_TIMEOUT_SECONDS", 15),
			RetryCount:     getEnvAsInt("API_GATEWAY_RETRY_COUNT", 0),
		},
		Session: SessionConfig{
			Store:         store,
			TokenTTLDays:  getEnvAsInt("SESSION_TOKEN_TTL_DAYS", 1),
			CheckInterval: checkInterval,
			CookieName:    getEnv("SESSION_COOKIE_NAME", "token"),
			HolderName:    getEnv("SESSION_HOLDER_COOKIE_NAME", "holder"),
			CookieSecure:  getEnvAsBool("SESSION_COOKIE_SECURE", false),
			CookieDomain:  os.Getenv("SESSION_COOKIE_DOMAIN"),
			FilePath:      os.Getenv("SESSION_FILE_PATH"),
			FileSecret:    os.Getenv("SESSION_FILE_SECRET"),
			RedisPrefix:   getEnv("SESSION_REDIS_PREFIX", "bank-portal:token:"),
			Holder:        os.Getenv("SESSION_HOLDER"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 5)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Output: os.Getenv("LOG_OUTPUT"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the per-call gateway timeout.
func (g GatewayConfig) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// TokenTTL returns the client-side storage expiry of a token.
func (s SessionConfig) TokenTTL() time.Duration {
	if s.TokenTTLDays <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.TokenTTLDays) * 24 * time.Hour
}

// StoreOr returns the configured store driver or fallback when unset.
func (s SessionConfig) StoreOr(fallback string) string {
	if s.Store == "" {
		return fallback
	}
	return s.Store
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
