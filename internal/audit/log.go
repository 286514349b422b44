package audit

import (
	"context"
	"log/slog"
)

// LogStore writes each event as one structured log line and keeps nothing
// in memory. It is the sink for deployments without Kafka.
type LogStore struct {
	logger *slog.Logger
}

func NewLogStore(logger *slog.Logger) *LogStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogStore{logger: logger.With("component", "audit")}
}

func (s *LogStore) Append(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "audit event",
		"event_id", event.ID.String(),
		"timestamp", event.Timestamp,
		"action", string(event.Action),
		"subject", event.Subject,
		"request_id", event.RequestID,
		"reason", event.Reason,
	)
	return nil
}
