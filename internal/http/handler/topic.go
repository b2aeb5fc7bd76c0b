package handler

import (
	"net/http"
	"strings"

	"github.com/alexarts74/payetavie/internal/reminder"
	"github.com/alexarts74/payetavie/internal/service"
)

type TopicHandler struct {
	svc *service.ReminderService
}

func NewTopicHandler(svc *service.ReminderService) *TopicHandler {
	return &TopicHandler{svc: svc}
}

// ServeHTTP routes /api/v1/topics and everything below it:
//
//	GET    /api/v1/topics
//	GET    /api/v1/topics/{slug}/reminders
//	POST   /api/v1/topics/{slug}/reminders
//	POST   /api/v1/topics/{slug}/candidates/{id}/activate
//	DELETE /api/v1/topics/{slug}/candidates/{id}
func (h *TopicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/topics")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"topics": reminder.Topics()})
		return
	}

	parts := strings.Split(path, "/")
	slug := parts[0]

	switch {
	case len(parts) == 2 && parts[1] == "reminders":
		switch r.Method {
		case http.MethodGet:
			h.handleView(w, r, slug)
		case http.MethodPost:
			h.handleCreate(w, r, slug)
		default:
			WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		}
	case len(parts) == 4 && parts[1] == "candidates" && parts[3] == "activate":
		if r.Method != http.MethodPost {
			WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		h.handleActivate(w, r, slug, parts[2])
	case len(parts) == 3 && parts[1] == "candidates":
		if r.Method != http.MethodDelete {
			WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		h.handleDeactivate(w, r, slug, parts[2])
	default:
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	}
}

func (h *TopicHandler) handleView(w http.ResponseWriter, r *http.Request, slug string) {
	view, err := h.svc.TopicView(r.Context(), getUserID(r), slug)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, view)
}

type createReminderRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date,omitempty"`
}

func (h *TopicHandler) handleCreate(w http.ResponseWriter, r *http.Request, slug string) {
	var req createReminderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := service.CreateReminderInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}

	rem, err := h.svc.Create(r.Context(), getUserID(r), slug, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, rem)
}

func (h *TopicHandler) handleActivate(w http.ResponseWriter, r *http.Request, slug, candidateID string) {
	rem, created, err := h.svc.ActivateCandidate(r.Context(), getUserID(r), slug, candidateID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	WriteJSON(w, status, rem)
}

func (h *TopicHandler) handleDeactivate(w http.ResponseWriter, r *http.Request, slug, candidateID string) {
	if err := h.svc.DeactivateCandidate(r.Context(), getUserID(r), slug, candidateID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
