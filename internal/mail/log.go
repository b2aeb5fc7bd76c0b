package mail

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogSender writes messages to the log instead of sending them. Used locally.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) (string, error) {
	id := "log-" + uuid.NewString()
	s.logger.InfoContext(ctx, "email not sent (log provider)",
		"message_id", id,
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
		"html_bytes", len(msg.HTML),
	)
	return id, nil
}

var _ Sender = (*LogSender)(nil)
