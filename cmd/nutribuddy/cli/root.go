package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/macromates/nutribuddy/internal/config"
	"github.com/macromates/nutribuddy/internal/repository/sqlstore"
	"github.com/macromates/nutribuddy/internal/server"
)

// NewRootCmd builds the command tree. Tests build a fresh tree per case so
// flag values never leak between runs.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nutribuddy",
		Short: "Nutrition Buddy operator tools",
		Long: `Operator commands for a Nutrition Buddy deployment.
Configuration comes from the environment (and .env), exactly as for the server:
DB_DRIVER, DB_PATH, DATABASE_URL, LOG_LEVEL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newAccountCmd())
	root.AddCommand(newSnapshotCmd())
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}

// env is what every command needs: the loaded config, an open store and the
// services built over it.
type env struct {
	cfg      config.Config
	db       *sqlstore.DB
	services *server.Services
	logger   *slog.Logger
}

// openEnv loads configuration and opens (and migrates) the store. Logs go to
// stderr so stdout stays clean for command output.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	db, err := server.OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:      cfg,
		db:       db,
		services: server.NewServices(db, nil, logger),
		logger:   logger,
	}, nil
}

func (e *env) Close() error {
	return e.db.Close()
}
