// Package config provides application configuration with multi-source
// priority.
//
// Sources (highest to lowest):
//  1. Environment variables (CANVAS_ prefix)
//  2. Config file (./config.yaml or ~/.canvas/config.yaml)
//  3. Defaults
//
// Sensitive values (the database password) are never logged. Validation is
// fail-fast with sentinel errors checkable via errors.Is.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidListenAddr indicates the HTTP listen address is malformed.
	ErrInvalidListenAddr = errors.New("invalid listen address")

	// ErrInvalidStallTimeout indicates the tool stall timeout is out of range.
	ErrInvalidStallTimeout = errors.New("invalid stall timeout")

	// ErrInvalidSessionTTL indicates the session idle expiry is out of range.
	ErrInvalidSessionTTL = errors.New("invalid session TTL")

	// ErrInvalidRateLimit indicates the per-IP rate limit is out of range.
	ErrInvalidRateLimit = errors.New("invalid rate limit")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini     = "gemini"
	ProviderSimulation = "simulation"
)

const (
	// DefaultStallTimeout is how long a tool-call may sit without a
	// result before the UI marks it stuck.
	DefaultStallTimeout = 45 * time.Second

	// DefaultSessionTTL is the idle expiry for chat sessions.
	DefaultSessionTTL = 30 * time.Minute
)

// Config stores the canvas service configuration.
type Config struct {
	// HTTP server
	ListenAddr string `mapstructure:"listen_addr"`

	// AI provider and model. Provider "simulation" disables Genkit and
	// uses deterministic text plus the static metrics provider.
	Provider  string `mapstructure:"provider"`
	ModelName string `mapstructure:"model_name"`

	// Conversation
	StallTimeout time.Duration `mapstructure:"stall_timeout"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`

	// Rate limiting, requests per second per client IP with a burst.
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second"`
	RateLimitBurst     int     `mapstructure:"rate_limit_burst"`

	// PostgreSQL. Ignored in simulation mode.
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"` // SENSITIVE: never logged
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// Observability. Empty endpoint disables tracing.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// Load reads configuration with the documented priority and validates it.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".canvas"))
	}

	setDefaults(v)

	v.SetEnvPrefix("CANVAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is the normal case; env vars and
		// defaults cover everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")

	v.SetDefault("provider", ProviderSimulation)
	v.SetDefault("model_name", "gemini-2.5-flash")

	v.SetDefault("stall_timeout", DefaultStallTimeout)
	v.SetDefault("session_ttl", DefaultSessionTTL)

	v.SetDefault("rate_limit_per_second", 10.0)
	v.SetDefault("rate_limit_burst", 20)

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "canvas")
	v.SetDefault("postgres_password", "canvas_dev_password")
	v.SetDefault("postgres_db_name", "canvas")
	v.SetDefault("postgres_ssl_mode", "disable")
}

// Validate checks ranges and enumerations; fail-fast at startup.
func (c *Config) Validate() error {
	if c.ListenAddr == "" || !strings.Contains(c.ListenAddr, ":") {
		return fmt.Errorf("%w: %q", ErrInvalidListenAddr, c.ListenAddr)
	}
	switch c.Provider {
	case ProviderGemini, ProviderSimulation:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidProvider, c.Provider)
	}
	if c.StallTimeout < time.Second || c.StallTimeout > 10*time.Minute {
		return fmt.Errorf("%w: %s (want 1s-10m)", ErrInvalidStallTimeout, c.StallTimeout)
	}
	if c.SessionTTL < time.Minute || c.SessionTTL > 24*time.Hour {
		return fmt.Errorf("%w: %s (want 1m-24h)", ErrInvalidSessionTTL, c.SessionTTL)
	}
	if c.RateLimitPerSecond <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("%w: %.1f/s burst %d", ErrInvalidRateLimit, c.RateLimitPerSecond, c.RateLimitBurst)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	return nil
}

// Simulation reports whether the service runs without Genkit and Postgres.
func (c *Config) Simulation() bool {
	return c.Provider == ProviderSimulation
}

// DatabaseURL assembles the PostgreSQL connection string.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:   "/" + c.PostgresDBName,
	}
	q := url.Values{}
	q.Set("sslmode", c.PostgresSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
