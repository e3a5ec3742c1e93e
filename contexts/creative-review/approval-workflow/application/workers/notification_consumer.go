package workers

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "creativehub/contexts/creative-review/approval-workflow/application"
	"creativehub/contexts/creative-review/approval-workflow/ports"
)

const defaultNotificationConsumerGroup = "approval-workflow-notifications-cg"

// NotificationConsumer reads workflow events off the bus and hands each one
// to the notification sinks once per event id.
type NotificationConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Sinks         []ports.NotificationSink
	Metrics       ports.DispatchMetrics
	Clock         ports.Clock
	Retry         RetryPolicy
	Topic         string
	ConsumerGroup string
	DedupTTL      time.Duration
	Disabled      bool
	Logger        *slog.Logger
}

func (c NotificationConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("workflow notification consumer disabled",
			"event", "workflow_notification_consumer_disabled",
			"module", application.ModuleName,
			"layer", "worker",
		)
		return nil
	}
	topic := strings.TrimSpace(c.Topic)
	if topic == "" {
		topic = WorkflowEventsTopic
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultNotificationConsumerGroup
	}
	return c.Subscriber.Subscribe(ctx, topic, group, c.handle)
}

func (c NotificationConsumer) handle(ctx context.Context, envelope ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}

	event, err := DecodeWorkflowEvent(envelope)
	if err != nil {
		// Redelivery cannot fix a malformed event.
		logger.Warn("workflow event skipped",
			"event", "workflow_notification_event_skipped",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", envelope.EventID,
			"event_type", envelope.EventType,
			"error", err.Error(),
		)
		return nil
	}

	if c.Dedup != nil {
		alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, envelope.EventID, hashPayload(envelope.Data), now.Add(c.dedupTTL()))
		if err != nil {
			logger.Error("workflow event dedupe failed",
				"event", "workflow_notification_dedupe_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"event_id", envelope.EventID,
				"error", err.Error(),
			)
			return err
		}
		if alreadyProcessed {
			logger.Debug("workflow event already processed",
				"event", "workflow_notification_replayed",
				"module", application.ModuleName,
				"layer", "worker",
				"event_id", envelope.EventID,
			)
			return nil
		}
	}

	deliverer := newSinkDeliverer(c.Retry, c.Metrics, logger, "worker")
	var errs []error
	for _, sink := range c.Sinks {
		if err := deliverer.deliver(ctx, sink, event); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 && len(errs) == len(c.Sinks) {
		// Nothing was delivered: drop the reservation and let the bus redeliver.
		err := errors.Join(errs...)
		if c.Dedup != nil {
			if releaseErr := c.Dedup.ReleaseEvent(ctx, envelope.EventID); releaseErr != nil {
				err = errors.Join(err, releaseErr)
			}
		}
		logger.Warn("workflow event undelivered",
			"event", "workflow_notification_undelivered",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"request_id", event.RequestID,
			"error", err.Error(),
		)
		return err
	}
	if len(errs) > 0 {
		// Some sinks already have the event; a redelivery would duplicate it
		// there, so the message is acknowledged with the reservation kept.
		logger.Warn("workflow event partially delivered",
			"event", "workflow_notification_partial",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"request_id", event.RequestID,
			"failed_sinks", len(errs),
			"error", errors.Join(errs...).Error(),
		)
		return nil
	}

	logger.Info("workflow event delivered",
		"event", "workflow_notification_delivered",
		"module", application.ModuleName,
		"layer", "worker",
		"event_id", event.EventID,
		"request_id", event.RequestID,
		"event_type", event.EventType,
		"sinks", len(c.Sinks),
	)
	return nil
}

func (c NotificationConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}
