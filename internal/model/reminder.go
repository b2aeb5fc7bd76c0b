package model

import "time"

type Reminder struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	TopicSlug         string    `json:"topic_slug"`
	Title             string    `json:"title"`
	Description       *string   `json:"description"`
	DueDate           *Date     `json:"due_date"`
	Completed         bool      `json:"completed"`
	SourceCandidateID *string   `json:"source_candidate_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsOverdue reports whether an incomplete reminder's due date is before today.
func (r Reminder) IsOverdue(today Date) bool {
	return !r.Completed && r.DueDate != nil && r.DueDate.Before(today)
}

// ReminderPatch holds the fields of a partial update. A nil field is left unchanged.
// ClearDueDate sets due_date to NULL and takes precedence over DueDate.
type ReminderPatch struct {
	Title        *string
	Description  *string
	DueDate      *Date
	ClearDueDate bool
	Completed    *bool
}

func (p ReminderPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil && !p.ClearDueDate && p.Completed == nil
}

// Candidate is a suggested reminder computed from a topic's recurring schedule.
// It is never persisted; activation turns it into a Reminder.
type Candidate struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     Date       `json:"due_date"`
	Month       time.Month `json:"month,omitempty"`
	Day         int        `json:"day,omitempty"`
}
