// Package config loads runtime settings from the environment.
//
// A .env file in the working directory is read first when present;
// variables already set in the process environment win over it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port int

	DBDriver    string // sqlite or postgres
	DBPath      string // sqlite file, or ":memory:"
	DatabaseURL string // postgres connection string

	JWTSecret string // empty disables authentication
	TokenTTL  time.Duration

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	PolicyFile string // empty uses the built-in policy

	// SnapshotSchedule is a five-field cron expression for recording system
	// performance samples. Empty disables the job.
	SnapshotSchedule string

	LogLevel slog.Level
}

// AuthEnabled reports whether sessions and role checks are active.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// GitHubEnabled reports whether GitHub sign-in is configured.
func (c Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// DSN returns the connection string for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == DriverPostgres {
		return c.DatabaseURL
	}
	return c.DBPath
}

// Load reads .env (if any) and then the environment. Every invalid value is
// reported, each error naming its variable.
func Load() (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, which has the signature of
// os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	var errs []error
	cfg := Config{
		DBDriver:           strings.ToLower(get("DB_DRIVER", DriverSQLite)),
		DBPath:             get("DB_PATH", "data/nutribuddy.db"),
		DatabaseURL:        get("DATABASE_URL", ""),
		JWTSecret:          get("JWT_SECRET", ""),
		GitHubClientID:     get("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: get("GITHUB_CLIENT_SECRET", ""),
		GitHubCallbackURL:  get("GITHUB_CALLBACK_URL", ""),
		PolicyFile:         get("POLICY_FILE", ""),
		SnapshotSchedule:   get("SNAPSHOT_SCHEDULE", ""),
	}

	port, err := strconv.Atoi(get("PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: %q is not a valid port", get("PORT", "")))
	}
	cfg.Port = port

	switch cfg.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL: required when DB_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER: unknown driver %q (want sqlite or postgres)", cfg.DBDriver))
	}

	ttl, err := time.ParseDuration(get("TOKEN_TTL", "15m"))
	if err != nil || ttl <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL: %q is not a positive duration", get("TOKEN_TTL", "")))
	}
	cfg.TokenTTL = ttl

	if cfg.JWTSecret != "" && len(cfg.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET: must be at least 16 characters"))
	}

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	if cfg.SnapshotSchedule != "" {
		if _, err := cron.ParseStandard(cfg.SnapshotSchedule); err != nil {
			errs = append(errs, fmt.Errorf("SNAPSHOT_SCHEDULE: %w", err))
		}
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	return cfg, errors.Join(errs...)
}
