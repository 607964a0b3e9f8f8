// Package db opens the server database and applies the embedded migrations.
// The DSN selects the backend: a postgres:// URL uses pgx, anything else is
// treated as a sqlite file path.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/rampforge/rampforge/internal/dbx"
	"github.com/rampforge/rampforge/internal/server/migrations"
)

// Open opens the database at dsn, runs the migrations, and reports the
// placeholder style repositories must use against it.
func Open(ctx context.Context, dsn string) (*sql.DB, dbx.Style, error) {
	driver, dialect, style := "sqlite", "sqlite3", dbx.Question
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, dialect, style = "pgx", "postgres", dbx.Dollar
	}

	handle, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, style, fmt.Errorf("open database: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(dialect); err != nil {
		_ = handle.Close()
		return nil, style, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, handle, "."); err != nil {
		_ = handle.Close()
		return nil, style, fmt.Errorf("run migrations: %w", err)
	}

	return handle, style, nil
}
