package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexarts74/payetavie/internal/notify"
)

const cronSecretHeader = "X-Cron-Secret"

// Runner runs one notification pass.
type Runner interface {
	Run(ctx context.Context) (notify.Result, error)
}

// DispatchHandler lets an external scheduler trigger a notification run.
type DispatchHandler struct {
	runner Runner
	secret string
	logger *slog.Logger
}

// NewDispatchHandler creates the trigger. An empty secret disables the check.
func NewDispatchHandler(runner Runner, secret string, logger *slog.Logger) *DispatchHandler {
	return &DispatchHandler{runner: runner, secret: secret, logger: logger}
}

type dispatchRequest struct {
	CronSecret string `json:"cron_secret"`
}

func (h *DispatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only POST is allowed")
		return
	}

	if !h.authorized(r) {
		WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid cron secret")
		return
	}

	// A run can outlast the server write timeout and must survive the caller
	// hanging up.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.WarnContext(r.Context(), "failed to clear write deadline", "error", err)
	}
	ctx := context.WithoutCancel(r.Context())

	res, err := h.runner.Run(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "notification run failed", "error", err)
		if errors.Is(err, notify.ErrSelect) {
			WriteError(w, http.StatusInternalServerError, "SELECT_FAILED", "failed to load due reminders")
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	WriteJSON(w, http.StatusOK, res)
}

func (h *DispatchHandler) authorized(r *http.Request) bool {
	if h.secret == "" {
		return true
	}
	if secretMatches(r.Header.Get(cronSecretHeader), h.secret) {
		return true
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil || len(body) == 0 {
		return false
	}
	var req dispatchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return false
	}
	return secretMatches(req.CronSecret, h.secret)
}

func secretMatches(got, want string) bool {
	if got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
