package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

// NewScheduler runs d on the given cron spec (five fields, evaluated in loc).
// A run still in progress when the next tick fires causes that tick to be skipped.
func NewScheduler(spec string, loc *time.Location, d *Dispatcher, logger *slog.Logger) (*cron.Cron, error) {
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	_, err := c.AddFunc(spec, func() {
		if _, err := d.Run(context.Background()); err != nil {
			logger.Error("scheduled notification run failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid notification schedule %q: %w", spec, err)
	}
	return c, nil
}
