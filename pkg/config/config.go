package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/meridianhq/gatehouse/pkg/observability"
	"github.com/meridianhq/gatehouse/pkg/session"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Auth          AuthConfig
	Session       session.Config
	Database      DatabaseConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for probes)
	MetricsPort string
}

// AuthConfig holds credential and policy configuration
type AuthConfig struct {
	// JWTSecret signs issued tokens. Required, minimum 32 characters.
	JWTSecret string
	// TokenTTL bounds credential and session lifetime.
	TokenTTL time.Duration
	// SuperadminID is the principal id that bypasses authorization.
	// Defaults to 1, the first registered account.
	SuperadminID int64
}

// DatabaseConfig holds the principal store connection settings
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("GATEHOUSE_HOST", "0.0.0.0"),
			Port:            getEnv("GATEHOUSE_PORT", "8080"),
			ReadTimeout:     getEnvDuration("GATEHOUSE_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("GATEHOUSE_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("GATEHOUSE_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("GATEHOUSE_SHUTDOWN_TIMEOUT", 30*time.Second),
			MetricsPort:     getEnv("GATEHOUSE_METRICS_PORT", "9090"),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("GATEHOUSE_JWT_SECRET", ""),
			TokenTTL:     getEnvDuration("GATEHOUSE_TOKEN_TTL", 10*time.Hour),
			SuperadminID: getEnvInt64("GATEHOUSE_SUPERADMIN_ID", 1),
		},
		Database: DatabaseConfig{
			URL:          getEnv("GATEHOUSE_POSTGRES_URL", ""),
			MaxOpenConns: getEnvInt("GATEHOUSE_POSTGRES_MAX_CONNS", 20),
			MaxIdleConns: getEnvInt("GATEHOUSE_POSTGRES_IDLE_CONNS", 5),
		},
		Observability: ObservabilityConfig{
			LogLevel:       observability.ParseLogLevel(getEnv("GATEHOUSE_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("GATEHOUSE_METRICS_ENABLED", true),
		},
	}

	cfg.Session = session.Config{
		RedisURL:   getEnv("GATEHOUSE_REDIS_URL", "redis://localhost:6379"),
		Password:   getEnv("GATEHOUSE_REDIS_PASSWORD", ""),
		DB:         getEnvInt("GATEHOUSE_REDIS_DB", 0),
		MaxRetries: getEnvInt("GATEHOUSE_REDIS_MAX_RETRIES", 3),
		PoolSize:   getEnvInt("GATEHOUSE_REDIS_POOL_SIZE", 10),
		TTL:        cfg.Auth.TokenTTL,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("GATEHOUSE_JWT_SECRET is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("GATEHOUSE_JWT_SECRET must be at least 32 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("GATEHOUSE_TOKEN_TTL must be positive")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("GATEHOUSE_POSTGRES_URL is required")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
