package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apihttp "github.com/alexarts74/payetavie/internal/http"
	"github.com/alexarts74/payetavie/internal/middleware"
	"github.com/alexarts74/payetavie/internal/model"
	"github.com/alexarts74/payetavie/internal/notify"
	"github.com/alexarts74/payetavie/internal/service"
)

// mockReminderRepo for router tests
type mockReminderRepo struct{}

func (m *mockReminderRepo) Create(ctx context.Context, rem model.Reminder) (model.Reminder, error) {
	return rem, nil
}
func (m *mockReminderRepo) GetByID(ctx context.Context, userID, reminderID string) (model.Reminder, error) {
	return model.Reminder{ID: reminderID, UserID: userID, TopicSlug: "impots", Title: "x"}, nil
}
func (m *mockReminderRepo) Update(ctx context.Context, userID, reminderID string, patch model.ReminderPatch) (model.Reminder, error) {
	return model.Reminder{}, nil
}
func (m *mockReminderRepo) Delete(ctx context.Context, userID, reminderID string) (string, error) {
	return "impots", nil
}
func (m *mockReminderRepo) ListByTopic(ctx context.Context, userID, topicSlug string) ([]model.Reminder, error) {
	return []model.Reminder{}, nil
}

type stubRunner struct{}

func (stubRunner) Run(ctx context.Context) (notify.Result, error) {
	return notify.Result{Message: "Aucun rappel à notifier"}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDeps() apihttp.Deps {
	return apihttp.Deps{
		Reminders:  service.NewReminderService(&mockReminderRepo{}, nil, time.UTC, discardLogger()),
		Runner:     stubRunner{},
		CronSecret: "s3cret",
		Logger:     discardLogger(),
	}
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router := apihttp.NewRouter(newTestDeps())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["status"] != "ok" {
		t.Errorf("expected status=ok, got %s", result["status"])
	}
}

func TestRouter_RoutesRegistered(t *testing.T) {
	router := apihttp.NewRouter(newTestDeps())

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodGet, "/api/v1/topics", http.StatusOK},
		{http.MethodGet, "/api/v1/topics/impots/reminders", http.StatusOK},
		{http.MethodGet, "/api/v1/reminders/2d5b8a1c-6f0e-4c1a-8b7e-9c3d2e1f0a02", http.StatusOK},
		{http.MethodPost, "/internal/notifications/dispatch", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			// The router does not enforce auth; the middleware does
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req = req.WithContext(middleware.SetUser(req.Context(), "user-1", "user@example.fr"))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d (body: %s)", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestRouter_DispatchNotRegisteredWithoutRunner(t *testing.T) {
	deps := newTestDeps()
	deps.Runner = nil
	router := apihttp.NewRouter(deps)

	req := httptest.NewRequest(http.MethodPost, "/internal/notifications/dispatch", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := apihttp.NewRouter(newTestDeps())

	req := httptest.NewRequest(http.MethodGet, "/unknown", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}
