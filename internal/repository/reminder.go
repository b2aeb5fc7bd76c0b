package repository

import (
	"context"
	"errors"

	"github.com/alexarts74/payetavie/internal/model"
)

// ErrDuplicateActivation is returned by Create when the user already activated
// the same candidate occurrence.
var ErrDuplicateActivation = errors.New("candidate occurrence already activated")

// ReminderRepository stores reminders. Every method that takes a userID scopes
// the statement to rows owned by that user and returns sql.ErrNoRows otherwise.
type ReminderRepository interface {
	Create(ctx context.Context, reminder model.Reminder) (model.Reminder, error)
	GetByID(ctx context.Context, userID, reminderID string) (model.Reminder, error)
	Update(ctx context.Context, userID, reminderID string, patch model.ReminderPatch) (model.Reminder, error)
	// Delete returns the topic slug of the deleted reminder.
	Delete(ctx context.Context, userID, reminderID string) (string, error)
	ListByTopic(ctx context.Context, userID, topicSlug string) ([]model.Reminder, error)
}
