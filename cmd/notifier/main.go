// Command notifier runs one notification dispatch and prints its summary as JSON.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexarts74/payetavie/internal/app"
	"github.com/alexarts74/payetavie/internal/config"
	"github.com/alexarts74/payetavie/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(context.Background()); err != nil {
		logger.Error("notifier failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Logs go to stderr so stdout carries only the summary.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewDB(ctx, cfg.DB.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	dispatcher, err := app.NewDispatcher(ctx, cfg, db, logger)
	if err != nil {
		return err
	}

	res, err := dispatcher.Run(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
