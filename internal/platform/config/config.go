package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "fundops/pkg/platform/strings"
)

const devJWTSigningKey = "dev-secret-key-change-in-production"

// Server captures process-level configuration.
type Server struct {
	Addr     string
	Env      string
	LogLevel string

	DatabaseURL  string
	StoreTimeout time.Duration

	JWTSigningKey string
	TokenTTL      time.Duration

	PolicyCatalogPath string

	Credential CredentialConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Lockout    LockoutConfig
	LoginRate  RateLimitConfig
	Fund       FundConfig
	Admin      AdminConfig

	// Warnings collects non-fatal problems found while loading. They are
	// logged once the logger exists.
	Warnings []string
}

// CredentialConfig selects how passwords are digested before lookup.
type CredentialConfig struct {
	Scheme     string // "pbkdf2" (default) or "sha256"
	Pepper     string
	Iterations int
}

// RedisConfig configures the optional Redis client used for login lockout.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional Kafka audit sink.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

type LockoutConfig struct {
	Threshold int
	Window    time.Duration
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type FundConfig struct {
	EnforceCapitalTarget bool
}

// AdminConfig guards the administrative API surface.
type AdminConfig struct {
	ServiceToken string
	AllowedCIDRs []string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:              envOr("FUNDOPS_ADDR", ":8080"),
		Env:               envOr("ENV", "development"),
		LogLevel:          envOr("LOG_LEVEL", "info"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSigningKey:     os.Getenv("JWT_SIGNING_KEY"),
		PolicyCatalogPath: os.Getenv("POLICY_CATALOG_PATH"),
		Credential: CredentialConfig{
			Scheme: strings.ToLower(envOr("CREDENTIAL_SCHEME", "pbkdf2")),
			Pepper: os.Getenv("CREDENTIAL_PEPPER"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:    pstrings.SplitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: envOr("AUDIT_TOPIC", "fundops.audit"),
		},
		Fund: FundConfig{
			EnforceCapitalTarget: strings.EqualFold(os.Getenv("FUND_ENFORCE_CAPITAL_TARGET"), "true"),
		},
		Admin: AdminConfig{
			ServiceToken: os.Getenv("ADMIN_API_TOKEN"),
			AllowedCIDRs: pstrings.SplitList(os.Getenv("ADMIN_ALLOWED_CIDRS")),
		},
	}

	var err error
	if cfg.StoreTimeout, err = durationEnv("STORE_TIMEOUT", 5*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", time.Hour); err != nil {
		return Server{}, err
	}
	if cfg.Credential.Iterations, err = intEnv("CREDENTIAL_ITERATIONS", 100_000); err != nil {
		return Server{}, err
	}
	if cfg.Lockout.Threshold, err = intEnv("LOCKOUT_THRESHOLD", 5); err != nil {
		return Server{}, err
	}
	if cfg.Lockout.Window, err = durationEnv("LOCKOUT_WINDOW", 15*time.Minute); err != nil {
		return Server{}, err
	}
	if cfg.LoginRate.RequestsPerSecond, err = floatEnv("LOGIN_RATE_RPS", 5); err != nil {
		return Server{}, err
	}
	if cfg.LoginRate.Burst, err = intEnv("LOGIN_RATE_BURST", 10); err != nil {
		return Server{}, err
	}

	if err := cfg.validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (c *Server) validate() error {
	switch c.Credential.Scheme {
	case "pbkdf2", "sha256":
	default:
		return fmt.Errorf("CREDENTIAL_SCHEME must be pbkdf2 or sha256, got %q", c.Credential.Scheme)
	}
	if c.Credential.Iterations <= 0 {
		return fmt.Errorf("CREDENTIAL_ITERATIONS must be positive")
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}

	if c.JWTSigningKey == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SIGNING_KEY is required in production")
		}
		c.JWTSigningKey = devJWTSigningKey
		c.Warnings = append(c.Warnings, "JWT_SIGNING_KEY not set, using development key")
	}
	if c.DatabaseURL == "" {
		if c.IsProduction() {
			return fmt.Errorf("DATABASE_URL is required in production")
		}
		c.Warnings = append(c.Warnings, "DATABASE_URL not set, using in-memory stores")
	}
	if c.Credential.Scheme == "sha256" {
		c.Warnings = append(c.Warnings, "CREDENTIAL_SCHEME=sha256 is for legacy data only")
	}
	if c.Admin.ServiceToken == "" && c.IsProduction() {
		c.Warnings = append(c.Warnings, "ADMIN_API_TOKEN not set, admin routes rely on bearer tokens only")
	}
	return nil
}

// SlogLevel maps LogLevel to an slog.Level.
func (c *Server) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Server) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *Server) UsePostgres() bool { return c.DatabaseURL != "" }

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}
