package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Long: `Apply the schema to the configured database. Every statement is
idempotent, so running it against an up-to-date database changes nothing.

Example:
  DB_DRIVER=postgres DATABASE_URL=postgres://... nutribuddy migrate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the store runs the migrations.
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "schema is up to date (%s)\n", e.db.Dialect())
			return nil
		},
	}
}
