package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/alexarts74/payetavie/internal/model"
)

type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotification(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) PendingBetween(ctx context.Context, from, to model.Date) ([]model.PendingReminder, error) {
	query := `
		SELECT r.id, r.user_id, u.email, r.title, r.due_date, r.completed,
		       COALESCE(array_agg(n.days_before) FILTER (WHERE n.days_before IS NOT NULL), '{}') AS logged
		FROM reminders r
		JOIN users u ON u.id = r.user_id
		LEFT JOIN reminder_notifications n ON n.reminder_id = r.id
		WHERE r.completed = false
		  AND r.due_date BETWEEN $1 AND $2
		GROUP BY r.id, u.email
		ORDER BY r.due_date ASC, r.id ASC`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending reminders: %w", err)
	}
	defer rows.Close()

	var pending []model.PendingReminder
	for rows.Next() {
		var p model.PendingReminder
		var logged pq.Int64Array
		if err := rows.Scan(&p.ReminderID, &p.UserID, &p.UserEmail, &p.Title, &p.DueDate, &p.Completed, &logged); err != nil {
			return nil, fmt.Errorf("failed to scan pending reminder: %w", err)
		}
		p.LoggedDaysBefore = make([]int, len(logged))
		for i, d := range logged {
			p.LoggedDaysBefore[i] = int(d)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending reminders: %w", err)
	}

	return pending, nil
}

func (r *PostgresNotificationRepository) Claim(ctx context.Context, entry model.NotificationLogEntry) (bool, error) {
	query := `
		INSERT INTO reminder_notifications (reminder_id, user_id, notification_date, days_before)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (reminder_id, days_before) DO NOTHING
		RETURNING id`

	var id string
	err := r.db.QueryRowContext(ctx, query,
		entry.ReminderID, entry.UserID, entry.NotificationDate, entry.DaysBefore,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return false, ErrReminderGone
		}
		return false, fmt.Errorf("failed to claim notification: %w", err)
	}
	return true, nil
}

func (r *PostgresNotificationRepository) Confirm(ctx context.Context, reminderID string, daysBefore int, messageID string) error {
	query := `
		UPDATE reminder_notifications
		SET message_id = $3, sent_at = now()
		WHERE reminder_id = $1 AND days_before = $2`

	result, err := r.db.ExecContext(ctx, query, reminderID, daysBefore, messageID)
	if err != nil {
		return fmt.Errorf("failed to confirm notification: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Release drops an unconfirmed claim so the pair becomes eligible again.
func (r *PostgresNotificationRepository) Release(ctx context.Context, reminderID string, daysBefore int) error {
	query := `
		DELETE FROM reminder_notifications
		WHERE reminder_id = $1 AND days_before = $2 AND sent_at IS NULL`

	if _, err := r.db.ExecContext(ctx, query, reminderID, daysBefore); err != nil {
		return fmt.Errorf("failed to release notification claim: %w", err)
	}
	return nil
}

var _ NotificationRepository = (*PostgresNotificationRepository)(nil)
