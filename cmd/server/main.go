// Package main is the entry point for the Nutrition Buddy API server.
//
// The main package stays minimal. It:
//  1. Reads configuration (environment, optionally seeded from .env)
//  2. Creates the logger
//  3. Builds and starts the server
//
// All actual logic lives in internal/. The operator CLI in cmd/nutribuddy
// builds the same services from the same configuration.
package main

import (
	"log/slog"
	"os"

	"github.com/macromates/nutribuddy/internal/config"
	"github.com/macromates/nutribuddy/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// Load reports every invalid variable at once; until the level is known
	// the errors go through a default logger.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// Text output is easy to read in a terminal and still key=value parseable.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if !cfg.AuthEnabled() {
		logger.Warn("JWT_SECRET not set, authentication is disabled and every route is open")
	} else if !cfg.GitHubEnabled() {
		logger.Info("GitHub sign-in not configured, only password sign-in is available")
	}

	// === 3. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
