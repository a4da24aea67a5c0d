package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// DevJWTSigningKey is used when UCP_JWT_SIGNING_KEY is unset.
const DevJWTSigningKey = "dev-secret-key-change-in-production"

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string `env:"UCP_ADDR" envDefault:":8080"`
	BaseURL       string `env:"UCP_BASE_URL" envDefault:"http://localhost:8080"`
	DiscoveryFile string `env:"UCP_DISCOVERY_FILE"`

	// Business identity used when no discovery file is given.
	BusinessName    string `env:"UCP_BUSINESS_NAME" envDefault:"Example Store"`
	BusinessVersion string `env:"UCP_BUSINESS_VERSION" envDefault:"2026-01-11"`

	LogLevel  string `env:"UCP_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"UCP_LOG_FORMAT" envDefault:"json"`

	MCPEnabled bool `env:"UCP_MCP_ENABLED" envDefault:"true"`
	A2AEnabled bool `env:"UCP_A2A_ENABLED" envDefault:"true"`

	JWTSigningKey string `env:"UCP_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	AuthRequired  bool   `env:"UCP_AUTH_REQUIRED" envDefault:"false"`

	ProfileCacheTTL     time.Duration `env:"UCP_PROFILE_CACHE_TTL" envDefault:"5m"`
	ProfileFetchTimeout time.Duration `env:"UCP_PROFILE_FETCH_TIMEOUT" envDefault:"5s"`
	RequestTimeout      time.Duration `env:"UCP_REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout     time.Duration `env:"UCP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	OTelEndpoint string `env:"UCP_OTEL_ENDPOINT"`

	Currency    string        `env:"UCP_CURRENCY" envDefault:"USD"`
	CheckoutTTL time.Duration `env:"UCP_CHECKOUT_TTL" envDefault:"6h"`

	// TrustProxyHeaders takes the client IP from X-Forwarded-For / X-Real-IP.
	TrustProxyHeaders bool `env:"UCP_TRUST_PROXY_HEADERS" envDefault:"false"`

	RateLimit RateLimitConfig `envPrefix:"UCP_RATE_LIMIT_"`
	Redis     RedisConfig     `envPrefix:"UCP_REDIS_"`
}

// RateLimitConfig sets per-client request budgets per Window. A zero budget
// leaves that class unlimited.
type RateLimitConfig struct {
	Enabled  bool          `env:"ENABLED" envDefault:"true"`
	Window   time.Duration `env:"WINDOW" envDefault:"1m"`
	Read     int           `env:"READ" envDefault:"300"`
	Write    int           `env:"WRITE" envDefault:"120"`
	Payment  int           `env:"PAYMENT" envDefault:"20"`
	Identity int           `env:"IDENTITY" envDefault:"20"`
}

// RedisConfig configures the optional shared backend for the profile cache
// and rate limit counters. An empty URL keeps both in memory.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return Server{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks values env parsing cannot.
func (s Server) Validate() error {
	u, err := url.Parse(s.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("UCP_BASE_URL must be an absolute http(s) URL, got %q", s.BaseURL)
	}
	switch s.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("UCP_LOG_FORMAT must be json or text, got %q", s.LogFormat)
	}
	if s.JWTSigningKey == "" {
		return errors.New("UCP_JWT_SIGNING_KEY must not be empty")
	}
	if s.ProfileFetchTimeout <= 0 {
		return errors.New("UCP_PROFILE_FETCH_TIMEOUT must be positive")
	}
	if s.RateLimit.Enabled && s.RateLimit.Window <= 0 {
		return errors.New("UCP_RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// UsingDevSigningKey reports whether the development JWT key is in use.
func (s Server) UsingDevSigningKey() bool {
	return s.JWTSigningKey == DevJWTSigningKey
}
