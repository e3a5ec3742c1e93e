package workers

import (
	"context"
	"strings"

	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
	"creativehub/contexts/creative-review/approval-workflow/ports"
)

// BusSink forwards workflow events to the message bus for the worker process.
type BusSink struct {
	Publisher ports.EventPublisher
	Topic     string
}

func (s BusSink) Name() string {
	return "bus"
}

func (s BusSink) Deliver(ctx context.Context, event entities.WorkflowEvent) error {
	envelope, err := EncodeWorkflowEvent(ctx, event)
	if err != nil {
		return err
	}
	topic := strings.TrimSpace(s.Topic)
	if topic == "" {
		topic = WorkflowEventsTopic
	}
	return s.Publisher.Publish(ctx, topic, envelope)
}
