package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexarts74/payetavie/internal/model"
	"github.com/alexarts74/payetavie/internal/reminder"
	"github.com/alexarts74/payetavie/internal/repository"
)

// TopicCache stores rendered topic views per user and topic.
type TopicCache interface {
	Get(ctx context.Context, userID, topicSlug string) ([]byte, bool, error)
	Set(ctx context.Context, userID, topicSlug string, data []byte) error
	Invalidate(ctx context.Context, userID, topicSlug string) error
}

type CreateReminderInput struct {
	Title       string
	Description string
	DueDate     *string // YYYY-MM-DD; nil or empty means no due date
}

// UpdateReminderInput carries a partial update. Nil fields are left unchanged;
// a DueDate pointing to "" clears the due date.
type UpdateReminderInput struct {
	Title       *string
	Description *string
	DueDate     *string
	Completed   *bool
}

type ReminderService struct {
	repo   repository.ReminderRepository
	cache  TopicCache
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*ReminderService)

// WithClock overrides the time source used for candidates and overdue flags.
func WithClock(now func() time.Time) Option {
	return func(s *ReminderService) { s.now = now }
}

func NewReminderService(repo repository.ReminderRepository, cache TopicCache, loc *time.Location, logger *slog.Logger, opts ...Option) *ReminderService {
	if loc == nil {
		loc = time.UTC
	}
	s := &ReminderService{
		repo:   repo,
		cache:  cache,
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ReminderService) localNow() time.Time {
	return s.now().In(s.loc)
}

func (s *ReminderService) Create(ctx context.Context, userID, topicSlug string, input CreateReminderInput) (model.Reminder, error) {
	if userID == "" {
		return model.Reminder{}, ErrUnauthenticated
	}
	if _, ok := reminder.LookupTopic(topicSlug); !ok {
		return model.Reminder{}, fmt.Errorf("%w: unknown topic %q", ErrNotFound, topicSlug)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return model.Reminder{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	dueDate, _, err := parseDueDate(input.DueDate)
	if err != nil {
		return model.Reminder{}, err
	}

	rem := model.Reminder{
		UserID:      userID,
		TopicSlug:   topicSlug,
		Title:       title,
		Description: optionalString(input.Description),
		DueDate:     dueDate,
	}

	created, err := s.repo.Create(ctx, rem)
	if err != nil {
		return model.Reminder{}, fmt.Errorf("failed to create reminder: %w", err)
	}

	s.invalidate(ctx, userID, topicSlug)
	return created, nil
}

func (s *ReminderService) GetByID(ctx context.Context, userID, reminderID string) (model.Reminder, error) {
	if userID == "" {
		return model.Reminder{}, ErrUnauthenticated
	}
	if !validID(reminderID) {
		return model.Reminder{}, ErrNotFound
	}

	rem, err := s.repo.GetByID(ctx, userID, reminderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reminder{}, ErrNotFound
		}
		return model.Reminder{}, fmt.Errorf("failed to get reminder: %w", err)
	}
	return rem, nil
}

func (s *ReminderService) Update(ctx context.Context, userID, reminderID string, input UpdateReminderInput) (model.Reminder, error) {
	if userID == "" {
		return model.Reminder{}, ErrUnauthenticated
	}
	if !validID(reminderID) {
		return model.Reminder{}, ErrNotFound
	}

	var patch model.ReminderPatch
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return model.Reminder{}, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		patch.Title = &title
	}
	if input.Description != nil {
		// Blank clears the description.
		description := strings.TrimSpace(*input.Description)
		patch.Description = &description
	}
	patch.Completed = input.Completed
	if input.DueDate != nil {
		dueDate, cleared, err := parseDueDate(input.DueDate)
		if err != nil {
			return model.Reminder{}, err
		}
		patch.DueDate = dueDate
		patch.ClearDueDate = cleared
	}

	updated, err := s.repo.Update(ctx, userID, reminderID, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reminder{}, ErrNotFound
		}
		return model.Reminder{}, fmt.Errorf("failed to update reminder: %w", err)
	}

	s.invalidate(ctx, userID, updated.TopicSlug)
	return updated, nil
}

// SetCompleted toggles completion. Completed reminders are never notified.
func (s *ReminderService) SetCompleted(ctx context.Context, userID, reminderID string, completed bool) (model.Reminder, error) {
	return s.Update(ctx, userID, reminderID, UpdateReminderInput{Completed: &completed})
}

func (s *ReminderService) Delete(ctx context.Context, userID, reminderID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	if !validID(reminderID) {
		return ErrNotFound
	}

	topicSlug, err := s.repo.Delete(ctx, userID, reminderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete reminder: %w", err)
	}

	s.invalidate(ctx, userID, topicSlug)
	return nil
}

func (s *ReminderService) ListByTopic(ctx context.Context, userID, topicSlug string) ([]model.Reminder, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if _, ok := reminder.LookupTopic(topicSlug); !ok {
		return nil, fmt.Errorf("%w: unknown topic %q", ErrNotFound, topicSlug)
	}

	reminders, err := s.repo.ListByTopic(ctx, userID, topicSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

func (s *ReminderService) invalidate(ctx context.Context, userID, topicSlug string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID, topicSlug); err != nil {
		s.logger.WarnContext(ctx, "topic view invalidation failed",
			"user_id", userID,
			"topic", topicSlug,
			"error", err,
		)
	}
}

// parseDueDate returns the parsed date, or cleared=true when the input asks to
// remove the due date.
func parseDueDate(s *string) (date *model.Date, cleared bool, err error) {
	if s == nil {
		return nil, false, nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil, true, nil
	}
	d, err := model.ParseDate(v)
	if err != nil {
		return nil, false, fmt.Errorf("%w: invalid due_date format, expected YYYY-MM-DD", ErrInvalidInput)
	}
	return &d, false, nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// validID accepts only the canonical hyphenated form, the one PostgreSQL stores.
func validID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
