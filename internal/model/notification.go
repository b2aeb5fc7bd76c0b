package model

import "time"

// NotificationLogEntry records that a reminder was notified at a given threshold.
// At most one entry exists per (ReminderID, DaysBefore).
type NotificationLogEntry struct {
	ReminderID       string     `json:"reminder_id"`
	UserID           string     `json:"user_id"`
	NotificationDate Date       `json:"notification_date"`
	DaysBefore       int        `json:"days_before"`
	MessageID        string     `json:"message_id,omitempty"`
	SentAt           *time.Time `json:"sent_at,omitempty"`
}

// PendingReminder is an incomplete reminder with a due date, joined with its
// owner's email and the thresholds already logged for it.
type PendingReminder struct {
	ReminderID       string
	UserID           string
	UserEmail        string
	Title            string
	DueDate          Date
	Completed        bool
	LoggedDaysBefore []int
}

// DueReminder is a (reminder, threshold) pair that should be notified today.
type DueReminder struct {
	ReminderID string `json:"reminder_id"`
	UserID     string `json:"user_id"`
	UserEmail  string `json:"user_email"`
	Title      string `json:"title"`
	DueDate    Date   `json:"due_date"`
	DaysUntil  int    `json:"days_until"`
}
