package commands

import (
	"context"
	"fmt"

	"github.com/benvon/blog-api/internal/database"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate command with up, status and version subcommands.
func NewMigrateCmd(open DBOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			database.SetMigrationOutput(cmd.OutOrStdout())
			return withDB(cmd, open, func(ctx context.Context, db *database.DB) error {
				if err := database.Migrate(ctx, db); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			database.SetMigrationOutput(cmd.OutOrStdout())
			return withDB(cmd, open, database.MigrationStatus)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd, open, func(ctx context.Context, db *database.DB) error {
				v, err := database.MigrationVersion(ctx, db)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d\n", v)
				return nil
			})
		},
	})
	return cmd
}
