package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexarts74/payetavie/internal/model"
	"github.com/alexarts74/payetavie/internal/reminder"
	"github.com/alexarts74/payetavie/internal/repository"
)

// ReminderView is a reminder as shown on a topic page.
type ReminderView struct {
	model.Reminder
	Overdue     bool   `json:"overdue"`
	Automatic   bool   `json:"automatic"`
	CandidateID string `json:"candidate_id,omitempty"`
}

// TopicView is everything a topic page needs about the user's reminders.
type TopicView struct {
	Topic               reminder.Topic    `json:"topic"`
	Date                model.Date        `json:"date"`
	Reminders           []ReminderView    `json:"reminders"`
	AvailableCandidates []model.Candidate `json:"available_candidates"`
	ActivatedIDs        []string          `json:"activated_ids"`
}

// TopicView returns the user's reminders for a topic along with the reconciled
// predefined candidates. Views are cached per day; a view computed on an
// earlier day is treated as a miss so candidates roll over.
func (s *ReminderService) TopicView(ctx context.Context, userID, topicSlug string) (TopicView, error) {
	if userID == "" {
		return TopicView{}, ErrUnauthenticated
	}
	topic, ok := reminder.LookupTopic(topicSlug)
	if !ok {
		return TopicView{}, fmt.Errorf("%w: unknown topic %q", ErrNotFound, topicSlug)
	}

	now := s.localNow()
	today := model.DateOf(now)

	if view, ok := s.cachedView(ctx, userID, topicSlug, today); ok {
		return view, nil
	}

	reminders, err := s.repo.ListByTopic(ctx, userID, topicSlug)
	if err != nil {
		return TopicView{}, fmt.Errorf("failed to list reminders: %w", err)
	}

	rec := reminder.Reconcile(reminder.Generate(topicSlug, now), reminders)

	view := TopicView{
		Topic:               topic,
		Date:                today,
		Reminders:           make([]ReminderView, 0, len(reminders)),
		AvailableCandidates: rec.Available,
		ActivatedIDs:        rec.ActivatedIDs,
	}
	for _, r := range reminders {
		candidateID, automatic := rec.SystemSourced[r.ID]
		view.Reminders = append(view.Reminders, ReminderView{
			Reminder:    r,
			Overdue:     r.IsOverdue(today),
			Automatic:   automatic,
			CandidateID: candidateID,
		})
	}

	s.storeView(ctx, userID, topicSlug, view)
	return view, nil
}

// ActivateCandidate turns a predefined candidate into a reminder. Activating an
// already activated candidate returns the existing reminder and created=false.
func (s *ReminderService) ActivateCandidate(ctx context.Context, userID, topicSlug, candidateID string) (rem model.Reminder, created bool, err error) {
	if userID == "" {
		return model.Reminder{}, false, ErrUnauthenticated
	}
	if _, ok := reminder.LookupTopic(topicSlug); !ok {
		return model.Reminder{}, false, fmt.Errorf("%w: unknown topic %q", ErrNotFound, topicSlug)
	}

	candidates := reminder.Generate(topicSlug, s.localNow())
	candidate, ok := reminder.FindCandidate(candidates, candidateID)
	if !ok {
		return model.Reminder{}, false, fmt.Errorf("%w: unknown candidate %q", ErrNotFound, candidateID)
	}

	existing, found, err := s.findActivated(ctx, userID, topicSlug, candidates, candidateID)
	if err != nil {
		return model.Reminder{}, false, err
	}
	if found {
		return existing, false, nil
	}

	dueDate := candidate.DueDate
	source := candidate.ID
	rem = model.Reminder{
		UserID:            userID,
		TopicSlug:         topicSlug,
		Title:             candidate.Title,
		Description:       optionalString(candidate.Description),
		DueDate:           &dueDate,
		SourceCandidateID: &source,
	}

	rem, err = s.repo.Create(ctx, rem)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateActivation) {
			// Lost a race with a concurrent activation.
			existing, found, ferr := s.findActivated(ctx, userID, topicSlug, candidates, candidateID)
			if ferr != nil {
				return model.Reminder{}, false, ferr
			}
			if found {
				return existing, false, nil
			}
		}
		return model.Reminder{}, false, fmt.Errorf("failed to activate candidate: %w", err)
	}

	s.invalidate(ctx, userID, topicSlug)
	return rem, true, nil
}

// DeactivateCandidate deletes the reminder realizing the candidate.
func (s *ReminderService) DeactivateCandidate(ctx context.Context, userID, topicSlug, candidateID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	if _, ok := reminder.LookupTopic(topicSlug); !ok {
		return fmt.Errorf("%w: unknown topic %q", ErrNotFound, topicSlug)
	}

	candidates := reminder.Generate(topicSlug, s.localNow())
	existing, found, err := s.findActivated(ctx, userID, topicSlug, candidates, candidateID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: candidate %q is not activated", ErrNotFound, candidateID)
	}

	return s.Delete(ctx, userID, existing.ID)
}

func (s *ReminderService) findActivated(ctx context.Context, userID, topicSlug string, candidates []model.Candidate, candidateID string) (model.Reminder, bool, error) {
	reminders, err := s.repo.ListByTopic(ctx, userID, topicSlug)
	if err != nil {
		return model.Reminder{}, false, fmt.Errorf("failed to list reminders: %w", err)
	}

	rec := reminder.Reconcile(candidates, reminders)

	// A linked reminder is preferred over a value match of the same candidate.
	var match model.Reminder
	found := false
	for _, r := range reminders {
		if rec.SystemSourced[r.ID] != candidateID {
			continue
		}
		if r.SourceCandidateID != nil {
			return r, true, nil
		}
		if !found {
			match, found = r, true
		}
	}
	return match, found, nil
}

func (s *ReminderService) cachedView(ctx context.Context, userID, topicSlug string, today model.Date) (TopicView, bool) {
	if s.cache == nil {
		return TopicView{}, false
	}

	data, ok, err := s.cache.Get(ctx, userID, topicSlug)
	if err != nil {
		s.logger.WarnContext(ctx, "topic view cache read failed", "topic", topicSlug, "error", err)
		return TopicView{}, false
	}
	if !ok {
		return TopicView{}, false
	}

	var view TopicView
	if err := json.Unmarshal(data, &view); err != nil {
		s.logger.WarnContext(ctx, "topic view cache entry unreadable", "topic", topicSlug, "error", err)
		return TopicView{}, false
	}
	if view.Date != today {
		return TopicView{}, false
	}
	return view, true
}

func (s *ReminderService) storeView(ctx context.Context, userID, topicSlug string, view TopicView) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(view)
	if err != nil {
		s.logger.WarnContext(ctx, "topic view encode failed", "topic", topicSlug, "error", err)
		return
	}
	if err := s.cache.Set(ctx, userID, topicSlug, data); err != nil {
		s.logger.WarnContext(ctx, "topic view cache write failed", "topic", topicSlug, "error", err)
	}
}
