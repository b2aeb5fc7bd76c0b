package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/alexarts74/payetavie/internal/model"
)

const listByTopicQuery = `SELECT ` + reminderColumns + `
		FROM reminders
		WHERE user_id = $1 AND topic_slug = $2
		ORDER BY due_date ASC NULLS LAST, created_at DESC`

const reminderColumns = `id, user_id, topic_slug, title, description, due_date, completed, source_candidate_id, created_at, updated_at`

type PostgresReminderRepository struct {
	db *sql.DB
}

func NewPostgresReminder(db *sql.DB) *PostgresReminderRepository {
	return &PostgresReminderRepository{db: db}
}

func (r *PostgresReminderRepository) Create(ctx context.Context, rem model.Reminder) (model.Reminder, error) {
	query := `
		INSERT INTO reminders (user_id, topic_slug, title, description, due_date, completed, source_candidate_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + reminderColumns

	row := r.db.QueryRowContext(ctx, query,
		rem.UserID, rem.TopicSlug, rem.Title, rem.Description, rem.DueDate, rem.Completed, rem.SourceCandidateID,
	)

	created, err := scanReminder(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return model.Reminder{}, ErrDuplicateActivation
		}
		return model.Reminder{}, err
	}
	return created, nil
}

func (r *PostgresReminderRepository) GetByID(ctx context.Context, userID, reminderID string) (model.Reminder, error) {
	query := `SELECT ` + reminderColumns + `
		FROM reminders
		WHERE id = $1 AND user_id = $2`

	row := r.db.QueryRowContext(ctx, query, reminderID, userID)
	return scanReminder(row)
}

// Update applies a partial update in one statement so the ownership check
// cannot race with the write.
func (r *PostgresReminderRepository) Update(ctx context.Context, userID, reminderID string, patch model.ReminderPatch) (model.Reminder, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, userID, reminderID)
	}

	query, args := buildUpdateQuery(userID, reminderID, patch)
	row := r.db.QueryRowContext(ctx, query, args...)
	return scanReminder(row)
}

func (r *PostgresReminderRepository) Delete(ctx context.Context, userID, reminderID string) (string, error) {
	query := `DELETE FROM reminders WHERE id = $1 AND user_id = $2 RETURNING topic_slug`

	var topicSlug string
	if err := r.db.QueryRowContext(ctx, query, reminderID, userID).Scan(&topicSlug); err != nil {
		return "", fmt.Errorf("failed to delete reminder: %w", err)
	}
	return topicSlug, nil
}

func (r *PostgresReminderRepository) ListByTopic(ctx context.Context, userID, topicSlug string) ([]model.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, listByTopicQuery, userID, topicSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	reminders := []model.Reminder{}
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reminders: %w", err)
	}

	return reminders, nil
}

// buildUpdateQuery sets only the patched columns. The id and owner are always
// the last two arguments.
func buildUpdateQuery(userID, reminderID string, patch model.ReminderPatch) (string, []any) {
	var sets []string
	var args []any
	argIdx := 1

	add := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", nullIfEmpty(*patch.Description))
	}
	switch {
	case patch.ClearDueDate:
		sets = append(sets, "due_date = NULL")
	case patch.DueDate != nil:
		add("due_date", *patch.DueDate)
	}
	if patch.Completed != nil {
		add("completed", *patch.Completed)
	}
	sets = append(sets, "updated_at = now()")

	query := fmt.Sprintf(`
		UPDATE reminders
		SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING %s`, strings.Join(sets, ", "), argIdx, argIdx+1, reminderColumns)
	args = append(args, reminderID, userID)
	return query, args
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type scannable interface {
	Scan(dest ...any) error
}

func scanReminder(row scannable) (model.Reminder, error) {
	var rem model.Reminder
	err := row.Scan(
		&rem.ID, &rem.UserID, &rem.TopicSlug, &rem.Title, &rem.Description,
		&rem.DueDate, &rem.Completed, &rem.SourceCandidateID, &rem.CreatedAt, &rem.UpdatedAt,
	)
	if err != nil {
		return model.Reminder{}, fmt.Errorf("failed to scan reminder: %w", err)
	}
	return rem, nil
}

// ensure compile-time interface compliance
var _ ReminderRepository = (*PostgresReminderRepository)(nil)
