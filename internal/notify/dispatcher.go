package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/alexarts74/payetavie/internal/mail"
	"github.com/alexarts74/payetavie/internal/model"
	"github.com/alexarts74/payetavie/internal/repository"
)

// NotificationLog guards against sending the same (reminder, threshold) twice.
type NotificationLog interface {
	Claim(ctx context.Context, entry model.NotificationLogEntry) (bool, error)
	Confirm(ctx context.Context, reminderID string, daysBefore int, messageID string) error
	Release(ctx context.Context, reminderID string, daysBefore int) error
}

type Config struct {
	// Concurrency bounds in-flight sends. 1 sends sequentially.
	Concurrency int
	// SendInterval is the minimum spacing between two sends. 0 disables pacing.
	SendInterval time.Duration
	SendTimeout  time.Duration
	LogTimeout   time.Duration
	Location     *time.Location
	Now          func() time.Time
}

// DefaultConfig paces sends for a provider allowing 2 requests per second.
func DefaultConfig() Config {
	return Config{
		Concurrency:  1,
		SendInterval: 600 * time.Millisecond,
		SendTimeout:  10 * time.Second,
		LogTimeout:   5 * time.Second,
		Location:     time.UTC,
	}
}

type SentItem struct {
	ReminderID string `json:"reminder_id"`
	UserEmail  string `json:"user_email"`
	DaysUntil  int    `json:"days_until"`
	MessageID  string `json:"message_id"`
}

type ItemError struct {
	ReminderID string `json:"reminder_id"`
	DaysUntil  int    `json:"days_until"`
	Error      string `json:"error"`
}

type Details struct {
	EmailsSent []SentItem  `json:"emails_sent"`
	Errors     []ItemError `json:"errors"`
}

// Result summarizes one dispatch run.
type Result struct {
	Message string  `json:"message"`
	Sent    int     `json:"sent"`
	Errors  int     `json:"errors"`
	Skipped int     `json:"skipped"`
	Details Details `json:"details"`
}

type itemStatus int

const (
	statusLogged itemStatus = iota
	statusFailed
	statusSkipped
)

type outcome struct {
	status    itemStatus
	messageID string
	err       error
}

type Dispatcher struct {
	selector *Selector
	log      NotificationLog
	sender   mail.Sender
	renderer *Renderer
	limiter  *rate.Limiter
	cfg      Config
	logger   *slog.Logger
}

func NewDispatcher(selector *Selector, log NotificationLog, sender mail.Sender, renderer *Renderer, cfg Config, logger *slog.Logger) *Dispatcher {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	limit := rate.Inf
	if cfg.SendInterval > 0 {
		limit = rate.Every(cfg.SendInterval)
	}

	return &Dispatcher{
		selector: selector,
		log:      log,
		sender:   sender,
		renderer: renderer,
		limiter:  rate.NewLimiter(limit, 1),
		cfg:      cfg,
		logger:   logger,
	}
}

// Today returns the current calendar date in the dispatcher's location.
func (d *Dispatcher) Today() model.Date {
	return model.DateOf(d.cfg.Now().In(d.cfg.Location))
}

// Run selects the due set and dispatches it. Only a failure to read the due set
// is returned as an error; per-item failures are reported in the Result.
func (d *Dispatcher) Run(ctx context.Context) (Result, error) {
	today := d.Today()
	due, err := d.selector.SelectDue(ctx, today)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSelect, err)
	}

	d.logger.InfoContext(ctx, "notification run started", "date", today.String(), "due", len(due))
	res := d.Dispatch(ctx, today, due)
	d.logger.InfoContext(ctx, "notification run finished",
		"sent", res.Sent,
		"errors", res.Errors,
		"skipped", res.Skipped,
	)
	return res, nil
}

// Dispatch sends every item of due. One item's failure never stops the others.
func (d *Dispatcher) Dispatch(ctx context.Context, today model.Date, due []model.DueReminder) Result {
	if len(due) == 0 {
		return Result{
			Message: "Aucun rappel à notifier",
			Details: Details{EmailsSent: []SentItem{}, Errors: []ItemError{}},
		}
	}

	outcomes := make([]outcome, len(due))
	var g errgroup.Group
	g.SetLimit(d.cfg.Concurrency)
	for i, item := range due {
		g.Go(func() error {
			outcomes[i] = d.process(ctx, today, item)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Details: Details{EmailsSent: []SentItem{}, Errors: []ItemError{}}}
	for i, o := range outcomes {
		item := due[i]
		switch o.status {
		case statusLogged:
			res.Sent++
			res.Details.EmailsSent = append(res.Details.EmailsSent, SentItem{
				ReminderID: item.ReminderID,
				UserEmail:  item.UserEmail,
				DaysUntil:  item.DaysUntil,
				MessageID:  o.messageID,
			})
		case statusFailed:
			res.Errors++
			res.Details.Errors = append(res.Details.Errors, ItemError{
				ReminderID: item.ReminderID,
				DaysUntil:  item.DaysUntil,
				Error:      o.err.Error(),
			})
		case statusSkipped:
			res.Skipped++
		}
	}
	res.Message = fmt.Sprintf("%d emails envoyés avec succès", res.Sent)
	return res
}

// process claims the (reminder, threshold) pair, sends the email and confirms the
// claim. A failed send releases the claim so the next run retries the pair.
func (d *Dispatcher) process(ctx context.Context, today model.Date, item model.DueReminder) outcome {
	logger := d.logger.With("reminder_id", item.ReminderID, "days_until", item.DaysUntil)

	msg, err := d.renderer.Render(item)
	if err != nil {
		logger.ErrorContext(ctx, "notification render failed", "error", err)
		return outcome{status: statusFailed, err: err}
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return outcome{status: statusFailed, err: fmt.Errorf("dispatch aborted: %v: %w", err, mail.ErrTransport)}
	}

	claimed, err := d.claim(ctx, today, item)
	if err != nil {
		if errors.Is(err, repository.ErrReminderGone) {
			logger.InfoContext(ctx, "reminder deleted before notification")
			return outcome{status: statusSkipped}
		}
		logger.ErrorContext(ctx, "notification claim failed", "error", err)
		return outcome{status: statusFailed, err: fmt.Errorf("%w: %v", ErrLogWrite, err)}
	}
	if !claimed {
		logger.InfoContext(ctx, "notification already claimed")
		return outcome{status: statusSkipped}
	}

	messageID, err := d.send(ctx, msg)
	if err != nil {
		logger.WarnContext(ctx, "notification send failed", "error", err)
		if relErr := d.release(ctx, item); relErr != nil {
			logger.ErrorContext(ctx, "notification claim release failed", "error", relErr)
		}
		return outcome{status: statusFailed, err: err}
	}

	if err := d.confirm(ctx, item, messageID); err != nil {
		logger.ErrorContext(ctx, "notification sent but log confirm failed", "message_id", messageID, "error", err)
		return outcome{status: statusFailed, err: fmt.Errorf("email sent (%s) but %w: %v", messageID, ErrLogWrite, err)}
	}

	logger.InfoContext(ctx, "notification sent", "message_id", messageID)
	return outcome{status: statusLogged, messageID: messageID}
}

func (d *Dispatcher) send(ctx context.Context, msg mail.Message) (string, error) {
	ctx, cancel := d.withTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	id, err := d.sender.Send(ctx, msg)
	if err != nil {
		if !errors.Is(err, mail.ErrTransport) && !errors.Is(err, mail.ErrRejected) {
			err = fmt.Errorf("%v: %w", err, mail.ErrTransport)
		}
		return "", err
	}
	return id, nil
}

func (d *Dispatcher) claim(ctx context.Context, today model.Date, item model.DueReminder) (bool, error) {
	ctx, cancel := d.withTimeout(ctx, d.cfg.LogTimeout)
	defer cancel()

	return d.log.Claim(ctx, model.NotificationLogEntry{
		ReminderID:       item.ReminderID,
		UserID:           item.UserID,
		NotificationDate: today,
		DaysBefore:       item.DaysUntil,
	})
}

func (d *Dispatcher) confirm(ctx context.Context, item model.DueReminder, messageID string) error {
	ctx, cancel := d.withTimeout(ctx, d.cfg.LogTimeout)
	defer cancel()

	return d.log.Confirm(ctx, item.ReminderID, item.DaysUntil, messageID)
}

func (d *Dispatcher) release(ctx context.Context, item model.DueReminder) error {
	ctx, cancel := d.withTimeout(context.WithoutCancel(ctx), d.cfg.LogTimeout)
	defer cancel()

	return d.log.Release(ctx, item.ReminderID, item.DaysUntil)
}

func (d *Dispatcher) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
