package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeError writes the API error envelope. It mirrors handler.WriteError,
// which middleware cannot import.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	body := map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}
