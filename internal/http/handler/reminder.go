package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/alexarts74/payetavie/internal/middleware"
	"github.com/alexarts74/payetavie/internal/service"
)

type ReminderHandler struct {
	svc *service.ReminderService
}

func NewReminderHandler(svc *service.ReminderService) *ReminderHandler {
	return &ReminderHandler{svc: svc}
}

// ServeHTTP routes /api/v1/reminders/{id} and /api/v1/reminders/{id}/completion
func (h *ReminderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/reminders")
	path = strings.Trim(path, "/")

	parts := strings.SplitN(path, "/", 2)
	reminderID := parts[0]
	subPath := ""
	if len(parts) > 1 {
		subPath = parts[1]
	}

	if reminderID == "" {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	}

	switch subPath {
	case "completion":
		h.handleCompletion(w, r, reminderID)
	case "":
		switch r.Method {
		case http.MethodGet:
			h.handleGetByID(w, r, reminderID)
		case http.MethodPatch:
			h.handleUpdate(w, r, reminderID)
		case http.MethodDelete:
			h.handleDelete(w, r, reminderID)
		default:
			WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		}
	default:
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	}
}

func (h *ReminderHandler) handleGetByID(w http.ResponseWriter, r *http.Request, reminderID string) {
	rem, err := h.svc.GetByID(r.Context(), getUserID(r), reminderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, rem)
}

// nullableString tells an absent field from an explicit null.
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(b, []byte("null")) {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

// clearable maps an explicit null to the empty string, which clears the field.
// An absent field stays nil.
func (n nullableString) clearable() *string {
	if !n.Set {
		return nil
	}
	if n.Value == nil {
		empty := ""
		return &empty
	}
	return n.Value
}

type updateReminderRequest struct {
	Title       *string        `json:"title,omitempty"`
	Description nullableString `json:"description"`
	DueDate     nullableString `json:"due_date"`
	Completed   *bool          `json:"completed,omitempty"`
}

func (h *ReminderHandler) handleUpdate(w http.ResponseWriter, r *http.Request, reminderID string) {
	var req updateReminderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := service.UpdateReminderInput{
		Title:       req.Title,
		Description: req.Description.clearable(),
		DueDate:     req.DueDate.clearable(),
		Completed:   req.Completed,
	}

	rem, err := h.svc.Update(r.Context(), getUserID(r), reminderID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, rem)
}

func (h *ReminderHandler) handleDelete(w http.ResponseWriter, r *http.Request, reminderID string) {
	if err := h.svc.Delete(r.Context(), getUserID(r), reminderID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type completionRequest struct {
	Completed *bool `json:"completed"`
}

func (h *ReminderHandler) handleCompletion(w http.ResponseWriter, r *http.Request, reminderID string) {
	if r.Method != http.MethodPatch {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	var req completionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Completed == nil {
		WriteError(w, http.StatusBadRequest, "INVALID_INPUT", "completed is required")
		return
	}

	rem, err := h.svc.SetCompleted(r.Context(), getUserID(r), reminderID, *req.Completed)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, rem)
}

func getUserID(r *http.Request) string {
	return middleware.GetUserID(r)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, service.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
