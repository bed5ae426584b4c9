package database

import (
	"context"
	"fmt"
	"io"

	"github.com/benvon/blog-api/internal/database/migrations"
	"github.com/pressly/goose/v3"
)

// Migrate applies all pending embedded migrations.
func Migrate(ctx context.Context, db *DB) error {
	if err := configureGoose(); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// MigrationStatus writes the applied/pending state of every migration to goose's logger.
func MigrationStatus(ctx context.Context, db *DB) error {
	if err := configureGoose(); err != nil {
		return err
	}
	if err := goose.StatusContext(ctx, db.DB, "."); err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	return nil
}

// MigrationVersion returns the current schema version.
func MigrationVersion(ctx context.Context, db *DB) (int64, error) {
	if err := configureGoose(); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, db.DB)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

func configureGoose() error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	return nil
}

// SetMigrationOutput redirects goose's log output; nil silences it.
func SetMigrationOutput(w io.Writer) {
	if w == nil {
		goose.SetLogger(goose.NopLogger())
		return
	}
	goose.SetLogger(&writerLogger{w: w})
}

type writerLogger struct {
	w io.Writer
}

func (l *writerLogger) Fatalf(format string, v ...interface{}) {
	fmt.Fprintf(l.w, format+"\n", v...)
}

func (l *writerLogger) Printf(format string, v ...interface{}) {
	fmt.Fprintf(l.w, format+"\n", v...)
}
