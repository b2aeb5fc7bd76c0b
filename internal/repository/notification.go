package repository

import (
	"context"
	"errors"

	"github.com/alexarts74/payetavie/internal/model"
)

// ErrReminderGone is returned by Claim when the reminder was deleted after selection.
var ErrReminderGone = errors.New("reminder no longer exists")

// NotificationRepository reads notification candidates and maintains the
// notification log. A log entry is claimed before the email is sent, confirmed
// once the provider accepts it, and released when the send fails.
type NotificationRepository interface {
	// PendingBetween returns incomplete reminders due in [from, to] with the
	// thresholds already logged for each.
	PendingBetween(ctx context.Context, from, to model.Date) ([]model.PendingReminder, error)
	// Claim inserts the log entry unless one exists for (ReminderID, DaysBefore).
	// It reports false when another run already holds the claim.
	Claim(ctx context.Context, entry model.NotificationLogEntry) (bool, error)
	Confirm(ctx context.Context, reminderID string, daysBefore int, messageID string) error
	Release(ctx context.Context, reminderID string, daysBefore int) error
}
