package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexarts74/payetavie/internal/middleware"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer wires the middleware chain: recovery -> logging -> auth -> router.
func NewServer(port string, deps Deps, auth *middleware.Auth) *Server {
	router := NewRouter(deps)

	var h http.Handler = router
	if auth != nil {
		h = auth.Middleware(h)
	}
	chain := middleware.Recovery(deps.Logger)(middleware.Logging(deps.Logger)(h))

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           chain,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: deps.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
