// Package config handles loading and validating runtime configuration for the scorecard
// server and the scorer CLI. Values are read from environment variables (optionally seeded
// from a local .env file) rather than being hardcoded, so the same binary runs in dev and
// production with only the environment changed.
package config

import (
	"fmt"
	"strings"
	"time"

	// godotenv loads a .env file into the process environment for local development.
	"github.com/joho/godotenv"
	// viper reads the environment with typed getters and defaults.
	"github.com/spf13/viper"
)

// Store backends accepted in STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds all runtime configuration values for the application.
type Config struct {
	Port  string // TCP port the HTTP server listens on (e.g. "8080")
	Env   string // "development", "staging" or "production"
	Debug bool   // verbose logging and SQL tracing

	StoreBackend   string // memory, sqlite or postgres
	DatabaseURL    string // PostgreSQL connection string, required for the postgres backend
	SQLitePath     string // database file for the sqlite backend
	MigrationsPath string // directory holding the golang-migrate SQL files

	WriteRetries int           // retries after the first failed store write
	WriteTimeout time.Duration // timeout of a single store write attempt

	PrefsPath string // YAML file the scorer CLI keeps its selections in
}

// Load reads configuration from a .env file (if present) and then from environment
// variables. Environment variables always win. The result is validated.
func Load() (*Config, error) {
	// A missing .env is fine: deployed environments set real variables.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DEBUG", false)
	v.SetDefault("STORE_BACKEND", BackendMemory)
	v.SetDefault("SQLITE_PATH", "scorecard.db")
	v.SetDefault("MIGRATIONS_PATH", "migrations")
	v.SetDefault("WRITE_RETRIES", 3)
	v.SetDefault("WRITE_TIMEOUT", "5s")
	v.SetDefault("PREFS_PATH", ".scorer.yaml")

	cfg := &Config{
		Port:           v.GetString("PORT"),
		Env:            v.GetString("ENV"),
		Debug:          v.GetBool("DEBUG"),
		StoreBackend:   strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND"))),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		SQLitePath:     v.GetString("SQLITE_PATH"),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		WriteRetries:   v.GetInt("WRITE_RETRIES"),
		WriteTimeout:   v.GetDuration("WRITE_TIMEOUT"),
		PrefsPath:      v.GetString("PREFS_PATH"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.WriteRetries < 0 {
		return fmt.Errorf("config: WRITE_RETRIES must not be negative, got %d", c.WriteRetries)
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("config: WRITE_TIMEOUT must be positive, got %s", c.WriteTimeout)
	}
	return nil
}
