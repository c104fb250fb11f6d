package events

import (
	"context"
	"log/slog"
)

// AuditLogHandler writes one structured log line per task event.
type AuditLogHandler struct {
	logger *slog.Logger
}

// NewAuditLogHandler creates an AuditLogHandler.
func NewAuditLogHandler(l *slog.Logger) *AuditLogHandler {
	if l == nil {
		l = slog.Default()
	}
	return &AuditLogHandler{logger: l.With(slog.String("component", "task_audit"))}
}

// HandleEvent implements EventHandler.
func (h *AuditLogHandler) HandleEvent(ctx context.Context, event *TaskEvent) error {
	attrs := []any{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.String("task_id", event.TaskID.String()),
		slog.String("owner_id", event.OwnerID.String()),
		slog.Time("occurred_at", event.OccurredAt),
	}

	if event.Type == TaskStatusChanged {
		var change StatusChange
		if err := event.UnmarshalPayload(&change); err == nil {
			attrs = append(attrs, slog.String("from", change.From), slog.String("to", change.To))
		}
	}

	h.logger.InfoContext(ctx, "task event", attrs...)
	return nil
}
