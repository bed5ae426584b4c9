// Package commands implements the blog-configure CLI.
package commands

import (
	"context"
	"fmt"

	"github.com/benvon/blog-api/internal/config"
	"github.com/benvon/blog-api/internal/database"
	"github.com/spf13/cobra"
)

// DBOpener returns a connection for one command run. The caller closes it.
type DBOpener func(ctx context.Context) (*database.DB, error)

// OpenFromEnv connects using DATABASE_URL (and .env when present).
func OpenFromEnv(context.Context) (*database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// NewRootCmd builds the command tree.
func NewRootCmd(open DBOpener) *cobra.Command {
	root := &cobra.Command{
		Use:           "blog-configure",
		Short:         "Configuration tool for the blog API",
		Long:          "Manage database-backed settings and schema migrations for the blog API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(NewCorsCmd(open))
	root.AddCommand(NewMigrateCmd(open))
	return root
}

// withDB opens a connection, runs fn and closes the connection.
func withDB(cmd *cobra.Command, open DBOpener, fn func(ctx context.Context, db *database.DB) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to close database: %v\n", err)
		}
	}()
	return fn(ctx, db)
}
