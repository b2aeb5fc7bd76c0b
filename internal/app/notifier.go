// Package app assembles the notification pipeline shared by the API server and
// the one-shot notifier command.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexarts74/payetavie/internal/config"
	"github.com/alexarts74/payetavie/internal/mail"
	"github.com/alexarts74/payetavie/internal/notify"
	"github.com/alexarts74/payetavie/internal/repository"
)

// NewMailSender returns the sender selected by MAIL_PROVIDER.
func NewMailSender(ctx context.Context, cfg config.Config, logger *slog.Logger) (mail.Sender, error) {
	switch cfg.Mail.Provider {
	case config.MailProviderResend:
		return mail.NewResendSender(cfg.Resend.BaseURL, cfg.Resend.APIKey), nil
	case config.MailProviderSES:
		sender, err := mail.NewSESSender(ctx, cfg.SES.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create ses sender: %w", err)
		}
		return sender, nil
	case config.MailProviderLog:
		return mail.NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Mail.Provider)
	}
}

// NewDispatcher builds the selector, renderer and dispatcher on top of db.
func NewDispatcher(ctx context.Context, cfg config.Config, db *sql.DB, logger *slog.Logger) (*notify.Dispatcher, error) {
	thresholds, err := cfg.Notify.ParseThresholds()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	sender, err := NewMailSender(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	repo := repository.NewPostgresNotification(db)
	return notify.NewDispatcher(
		notify.NewSelector(repo, thresholds),
		repo,
		sender,
		notify.NewRenderer(cfg.AppURL, cfg.Mail.From),
		dispatcherConfig(cfg, loc),
		logger,
	), nil
}

func dispatcherConfig(cfg config.Config, loc *time.Location) notify.Config {
	dc := notify.DefaultConfig()
	dc.Concurrency = cfg.Notify.Concurrency
	dc.SendInterval = cfg.Notify.SendInterval
	dc.SendTimeout = cfg.Notify.SendTimeout
	dc.LogTimeout = cfg.Notify.LogTimeout
	dc.Location = loc
	return dc
}
