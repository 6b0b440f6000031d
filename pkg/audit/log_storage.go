package audit

import (
	"context"
	"log/slog"
)

// LogStorage writes events as structured log records.
// Used when no document store is configured.
type LogStorage struct {
	logger *slog.Logger
}

func NewLogStorage(logger *slog.Logger) *LogStorage {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogStorage{logger: logger.With(slog.String("component", "audit"))}
}

func (s *LogStorage) StoreBatch(ctx context.Context, events []Event) error {
	for _, e := range events {
		s.logger.InfoContext(ctx, "audit",
			slog.String("event_id", e.ID),
			slog.String("action", e.Action),
			slog.String("resource", e.Resource),
			slog.String("actor_id", e.ActorID),
			slog.String("target_user_id", e.TargetUserID),
			slog.String("tenant_id", e.TenantID),
			slog.String("result", string(e.Result)),
			slog.Any("metadata", e.Metadata),
			slog.Time("created_at", e.CreatedAt),
		)
	}
	return nil
}
