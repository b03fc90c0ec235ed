// Package pgstore is the Postgres storage shared by the API server and the
// direct database transport: users, per-user profiles and ordered record
// collections kept as JSONB, plus change notifications on the
// record_changes channel.
package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediminder/internal/logging"
	"github.com/dmitrijs2005/mediminder/internal/pgstore/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// migrationLogger sends goose progress to logger instead of stderr.
type migrationLogger struct {
	logger logging.Logger
}

func (m migrationLogger) Printf(format string, v ...any) {
	m.logger.Info(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (m migrationLogger) Fatalf(format string, v ...any) {
	m.logger.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against db. Goose output goes to logger.
func RunMigrations(ctx context.Context, db *sql.DB, logger logging.Logger) error {
	goose.SetLogger(migrationLogger{logger: logger.With("component", "migrations")})
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}

// Open connects through the pgx stdlib driver and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}
