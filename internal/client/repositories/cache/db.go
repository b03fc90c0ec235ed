package cache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/mediminder/internal/client/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// RunMigrations applies the embedded cache schema. The provider is built
// without a verbose flag and with a no-op logger so nothing reaches the
// terminal the REPL is drawing on.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations,
		goose.WithLogger(goose.NopLogger()))
	if err != nil {
		return fmt.Errorf("failed to create goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply cache migrations: %w", err)
	}
	return nil
}

// Open opens the SQLite database at dsn, migrates it and returns the
// repository together with the handle the caller must close.
func Open(ctx context.Context, dsn string) (*SQLiteStore, *sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache db: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps
	// in-memory databases alive and shared.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate cache db: %w", err)
	}
	return NewSQLiteStore(db), db, nil
}
