package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrateUp applies every up migration in file name order. Migrations are idempotent.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	names, err := migrationNames(".up.sql")
	if err != nil {
		return err
	}
	return applyMigrations(ctx, db, names)
}

// MigrateDown applies every down migration in reverse file name order.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	names, err := migrationNames(".down.sql")
	if err != nil {
		return err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return applyMigrations(ctx, db, names)
}

func migrationNames(suffix string) ([]string, error) {
	names, err := fs.Glob(migrationFiles, "migrations/*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func applyMigrations(ctx context.Context, db *sql.DB, names []string) error {
	for _, name := range names {
		sqlBytes, err := migrationFiles.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(sqlBytes)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}
