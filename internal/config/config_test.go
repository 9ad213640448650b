package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(nil))
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DBDriver != DriverSQLite || cfg.DSN() != "data/nutribuddy.db" {
		t.Errorf("driver/dsn = %s/%s", cfg.DBDriver, cfg.DSN())
	}
	if cfg.TokenTTL != 15*time.Minute {
		t.Errorf("TokenTTL = %v, want 15m", cfg.TokenTTL)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.AuthEnabled() || cfg.GitHubEnabled() {
		t.Error("auth and GitHub should be disabled without secrets")
	}
	if cfg.GitHubCallbackURL != "http://localhost:8080/auth/github/callback" {
		t.Errorf("GitHubCallbackURL = %q", cfg.GitHubCallbackURL)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"PORT":                 "9090",
		"DB_DRIVER":            "Postgres",
		"DATABASE_URL":         "postgres://localhost/nutri",
		"JWT_SECRET":           "0123456789abcdef",
		"TOKEN_TTL":            "1h",
		"GITHUB_CLIENT_ID":     "id",
		"GITHUB_CLIENT_SECRET": "secret",
		"SNAPSHOT_SCHEDULE":    "0 * * * *",
		"LOG_LEVEL":            "debug",
	}))
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}

	if cfg.Port != 9090 || cfg.DBDriver != DriverPostgres || cfg.DSN() != "postgres://localhost/nutri" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.AuthEnabled() || !cfg.GitHubEnabled() {
		t.Error("auth and GitHub should be enabled")
	}
	if cfg.TokenTTL != time.Hour || cfg.LogLevel != slog.LevelDebug {
		t.Errorf("TokenTTL/LogLevel = %v/%v", cfg.TokenTTL, cfg.LogLevel)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad port", map[string]string{"PORT": "eighty"}, "PORT"},
		{"port out of range", map[string]string{"PORT": "70000"}, "PORT"},
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}, "DB_DRIVER"},
		{"postgres without url", map[string]string{"DB_DRIVER": "postgres"}, "DATABASE_URL"},
		{"bad ttl", map[string]string{"TOKEN_TTL": "soon"}, "TOKEN_TTL"},
		{"short secret", map[string]string{"JWT_SECRET": "short"}, "JWT_SECRET"},
		{"bad schedule", map[string]string{"SNAPSHOT_SCHEDULE": "every hour"}, "SNAPSHOT_SCHEDULE"},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(lookupFrom(tt.env))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("FromEnv() error = %v, want one naming %s", err, tt.wantErr)
			}
		})
	}
}
