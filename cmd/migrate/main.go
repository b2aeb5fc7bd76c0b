// Command migrate applies the embedded schema migrations: "up" (default) or "down".
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/alexarts74/payetavie/internal/config"
	"github.com/alexarts74/payetavie/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	if err := run(context.Background(), direction); err != nil {
		logger.Error("migration failed", "direction", direction, "error", err)
		os.Exit(1)
	}
	logger.Info("migrations applied", "direction", direction)
}

func run(ctx context.Context, direction string) error {
	migrate := map[string]func(context.Context, *sql.DB) error{
		"up":   repository.MigrateUp,
		"down": repository.MigrateDown,
	}[direction]
	if migrate == nil {
		return fmt.Errorf("unknown direction %q: use up or down", direction)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return err
	}

	db, err := repository.NewDB(ctx, cfg.DB.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	return migrate(ctx, db)
}
