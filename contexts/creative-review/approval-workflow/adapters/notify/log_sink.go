package notify

import (
	"context"
	"log/slog"

	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
)

// LogSink writes each event as one structured line. Used in development.
type LogSink struct {
	Logger *slog.Logger
}

func (LogSink) Name() string {
	return "log"
}

func (s LogSink) Deliver(ctx context.Context, event entities.WorkflowEvent) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, subjectFor(event),
		"event", "workflow_notification_logged",
		"module", "creative-review/approval-workflow",
		"layer", "adapter",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"request_id", event.RequestID,
		"from", event.From.String(),
		"to", event.To.String(),
		"actor_id", event.ActorID,
		"actor_role", string(event.ActorRole),
	)
	return nil
}
