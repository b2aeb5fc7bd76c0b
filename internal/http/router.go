package http

import (
	"log/slog"
	"net/http"

	"github.com/alexarts74/payetavie/internal/http/handler"
	"github.com/alexarts74/payetavie/internal/service"
)

// Deps are the services the router exposes. DB and Runner may be nil: the
// health check then skips the database ping and the dispatch route is not
// registered.
type Deps struct {
	Reminders  *service.ReminderService
	DB         handler.Pinger
	Runner     handler.Runner
	CronSecret string
	Logger     *slog.Logger
}

func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	// Health check - intentionally outside /api/v1 for ALB health check compatibility
	mux.Handle("/health", handler.NewHealthHandler(deps.DB))

	topics := handler.NewTopicHandler(deps.Reminders)
	mux.Handle("/api/v1/topics", topics)
	mux.Handle("/api/v1/topics/", topics)

	reminders := handler.NewReminderHandler(deps.Reminders)
	mux.Handle("/api/v1/reminders/", reminders)

	if deps.Runner != nil {
		mux.Handle("/internal/notifications/dispatch", handler.NewDispatchHandler(deps.Runner, deps.CronSecret, deps.Logger))
	}

	return mux
}
