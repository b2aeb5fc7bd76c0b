package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexarts74/payetavie/internal/middleware"
)

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	return logger, &buf
}

func TestRecovery(t *testing.T) {
	tests := []struct {
		name       string
		inner      http.HandlerFunc
		wantStatus int
		wantCode   string
		wantLogged bool
	}{
		{
			name: "no panic",
			inner: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "panic before response",
			inner: func(w http.ResponseWriter, r *http.Request) {
				panic("reminder row scan failed")
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
			wantLogged: true,
		},
		{
			name: "panic with error value",
			inner: func(w http.ResponseWriter, r *http.Request) {
				var m map[string]int
				m["boom"]++
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
			wantLogged: true,
		},
		{
			name: "panic after response started",
			inner: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"topics":[`))
				panic("encoder failed midway")
			},
			wantStatus: http.StatusOK,
			wantLogged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logBuf := newTestLogger()
			h := middleware.Recovery(logger)(tt.inner)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/topics", nil)
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if logged := strings.Contains(logBuf.String(), "panic recovered"); logged != tt.wantLogged {
				t.Errorf("panic logged = %v, want %v", logged, tt.wantLogged)
			}
			if tt.wantCode == "" {
				return
			}

			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("expected JSON content type, got %s", ct)
			}
			var res struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if res.Error.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, res.Error.Code)
			}
		})
	}
}

func TestRecovery_LogsRequestID(t *testing.T) {
	logger, logBuf := newTestLogger()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	h := middleware.Recovery(logger)(middleware.Logging(logger)(inner))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reminders/x", nil)
	req.Header.Set("X-Request-ID", "4b0d3a3e-3c1f-4e0a-9b5e-8f2f3f7c9d10")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if !strings.Contains(logBuf.String(), "request_id=4b0d3a3e-3c1f-4e0a-9b5e-8f2f3f7c9d10") {
		t.Errorf("expected request id in panic log, got %s", logBuf.String())
	}
}

func TestRecovery_ReraisesAbortHandler(t *testing.T) {
	logger, _ := newTestLogger()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})

	h := middleware.Recovery(logger)(inner)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	defer func() {
		if v := recover(); v != http.ErrAbortHandler {
			t.Errorf("expected ErrAbortHandler to propagate, got %v", v)
		}
	}()
	h.ServeHTTP(w, req)
	t.Error("ServeHTTP should not return normally")
}
