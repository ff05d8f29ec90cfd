// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the settings shared by the server and the command-line tools.
type Config struct {
	// Database
	DBDriver    string // "sqlite" or "postgres"
	DBPath      string // SQLite file, used when DBDriver is "sqlite"
	DatabaseURL string // PostgreSQL DSN, used when DBDriver is "postgres"
	DBMaxConns  int

	// HTTP
	Port int

	// Logging
	LogLevel  string
	LogFormat string // "text" (colored) or "json"

	// JWTSecret enables bearer-token auth on administrative routes when set.
	JWTSecret string
}

// Load reads the configuration from environment variables, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DBDriver:    getEnv("DB_DRIVER", "sqlite"),
		DBPath:      getEnv("DB_PATH", "./data/billing.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.DBMaxConns, err = getEnvInt("DB_MAX_CONNS", 0); err != nil {
		return nil, err
	}

	switch cfg.DBDriver {
	case "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	return cfg, nil
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "postgres" {
		return c.DatabaseURL
	}
	return c.DBPath
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}
