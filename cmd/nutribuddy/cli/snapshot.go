package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Record one system performance sample now",
		Long: `Measure the system now and append a client_snapshot sample, the same
one the server's scheduled job records. Useful from an external cron when
SNAPSHOT_SCHEDULE is not set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			sample, err := e.services.Performance.Snapshot(cmd.Context())
			if err != nil {
				return fmt.Errorf("recording snapshot: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "recorded sample %d: %s, %d existing clients, %d new\n",
				sample.ID, sample.Status, sample.ExistingClients, sample.NewClients)
			return nil
		},
	}
}
