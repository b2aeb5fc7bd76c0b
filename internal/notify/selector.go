package notify

import (
	"context"
	"slices"

	"github.com/alexarts74/payetavie/internal/model"
)

// DefaultThresholds are the days-before-due at which a reminder is notified.
var DefaultThresholds = []int{0, 1, 3, 7}

type PendingSource interface {
	PendingBetween(ctx context.Context, from, to model.Date) ([]model.PendingReminder, error)
}

// Selector computes the due set: incomplete reminders whose distance to today is
// one of the thresholds and that were not yet notified at that distance.
type Selector struct {
	source     PendingSource
	thresholds []int
}

func NewSelector(source PendingSource, thresholds []int) *Selector {
	seen := make(map[int]bool, len(thresholds))
	normalized := make([]int, 0, len(thresholds))
	for _, t := range thresholds {
		if t < 0 || seen[t] {
			continue
		}
		seen[t] = true
		normalized = append(normalized, t)
	}
	slices.Sort(normalized)
	return &Selector{source: source, thresholds: normalized}
}

func (s *Selector) Thresholds() []int {
	out := make([]int, len(s.thresholds))
	copy(out, s.thresholds)
	return out
}

func (s *Selector) SelectDue(ctx context.Context, today model.Date) ([]model.DueReminder, error) {
	due := []model.DueReminder{}
	if len(s.thresholds) == 0 {
		return due, nil
	}

	maxThreshold := s.thresholds[len(s.thresholds)-1]
	pending, err := s.source.PendingBetween(ctx, today, today.AddDays(maxThreshold))
	if err != nil {
		return nil, err
	}

	for _, p := range pending {
		if p.Completed {
			continue
		}
		daysUntil := p.DueDate.DaysSince(today)
		if !slices.Contains(s.thresholds, daysUntil) || slices.Contains(p.LoggedDaysBefore, daysUntil) {
			continue
		}
		due = append(due, model.DueReminder{
			ReminderID: p.ReminderID,
			UserID:     p.UserID,
			UserEmail:  p.UserEmail,
			Title:      p.Title,
			DueDate:    p.DueDate,
			DaysUntil:  daysUntil,
		})
	}
	return due, nil
}
