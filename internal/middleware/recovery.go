package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// panicWriter tracks whether the response has started, after which a 500 can
// no longer be sent.
type panicWriter struct {
	http.ResponseWriter
	started bool
}

func (pw *panicWriter) WriteHeader(code int) {
	pw.started = true
	pw.ResponseWriter.WriteHeader(code)
}

func (pw *panicWriter) Write(b []byte) (int, error) {
	pw.started = true
	return pw.ResponseWriter.Write(b)
}

func (pw *panicWriter) Unwrap() http.ResponseWriter {
	return pw.ResponseWriter
}

// Recovery turns a handler panic into a logged 500. http.ErrAbortHandler is
// re-raised so net/http can abort the connection quietly.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pw := &panicWriter{ResponseWriter: w}

			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				// Logging runs inside Recovery, so the id is only on the response.
				logger.Error("panic recovered",
					"request_id", w.Header().Get(requestIDHeader),
					"error", fmt.Sprint(v),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				if pw.started {
					return
				}
				writeError(pw, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}()

			next.ServeHTTP(pw, r)
		})
	}
}
