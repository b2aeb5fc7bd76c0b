package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexarts74/payetavie/internal/model"
	"github.com/alexarts74/payetavie/internal/notify"
)

type mockSource struct {
	pendingFn func(ctx context.Context, from, to model.Date) ([]model.PendingReminder, error)
}

func (m *mockSource) PendingBetween(ctx context.Context, from, to model.Date) ([]model.PendingReminder, error) {
	return m.pendingFn(ctx, from, to)
}

var today = model.NewDate(2025, time.June, 1)

func pending(id string, daysAhead int, logged ...int) model.PendingReminder {
	return model.PendingReminder{
		ReminderID:       id,
		UserID:           "user-1",
		UserEmail:        "user@example.com",
		Title:            "Rappel " + id,
		DueDate:          today.AddDays(daysAhead),
		LoggedDaysBefore: logged,
	}
}

func TestSelector_SelectDue(t *testing.T) {
	rows := []model.PendingReminder{
		pending("today", 0),
		pending("tomorrow", 1),
		pending("two-days", 2),
		pending("three-days", 3, 7),
		pending("week-logged", 7, 7),
		{ReminderID: "done", DueDate: today, Completed: true},
	}

	var gotFrom, gotTo model.Date
	src := &mockSource{pendingFn: func(ctx context.Context, from, to model.Date) ([]model.PendingReminder, error) {
		gotFrom, gotTo = from, to
		return rows, nil
	}}

	due, err := notify.NewSelector(src, []int{7, 3, 1, 0, 3}).SelectDue(context.Background(), today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotFrom != today || gotTo != today.AddDays(7) {
		t.Errorf("window = [%s, %s], want [%s, %s]", gotFrom, gotTo, today, today.AddDays(7))
	}

	want := map[string]int{"today": 0, "tomorrow": 1, "three-days": 3}
	if len(due) != len(want) {
		t.Fatalf("expected %d due items, got %+v", len(want), due)
	}
	for _, d := range due {
		days, ok := want[d.ReminderID]
		if !ok {
			t.Errorf("unexpected due item %s", d.ReminderID)
			continue
		}
		if d.DaysUntil != days {
			t.Errorf("%s: days_until = %d, want %d", d.ReminderID, d.DaysUntil, days)
		}
		if d.UserEmail == "" {
			t.Errorf("%s: missing email", d.ReminderID)
		}
	}
}

func TestSelector_NormalizesThresholds(t *testing.T) {
	s := notify.NewSelector(&mockSource{}, []int{7, -1, 3, 3, 0})
	got := s.Thresholds()
	want := []int{0, 3, 7}
	if len(got) != len(want) {
		t.Fatalf("thresholds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("thresholds = %v, want %v", got, want)
		}
	}
}

func TestSelector_NoThresholds(t *testing.T) {
	src := &mockSource{pendingFn: func(ctx context.Context, from, to model.Date) ([]model.PendingReminder, error) {
		t.Fatal("source must not be queried without thresholds")
		return nil, nil
	}}
	due, err := notify.NewSelector(src, nil).SelectDue(context.Background(), today)
	if err != nil || len(due) != 0 {
		t.Errorf("expected empty result, got %v, %v", due, err)
	}
}

func TestSelector_SourceError(t *testing.T) {
	src := &mockSource{pendingFn: func(ctx context.Context, from, to model.Date) ([]model.PendingReminder, error) {
		return nil, errors.New("connection refused")
	}}
	if _, err := notify.NewSelector(src, notify.DefaultThresholds).SelectDue(context.Background(), today); err == nil {
		t.Fatal("expected error")
	}
}
