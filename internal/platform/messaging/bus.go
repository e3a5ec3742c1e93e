package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"creativehub/contexts/creative-review/approval-workflow/ports"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	metadataEventType    = "event_type"
	metadataPartitionKey = "partition_key"

	defaultNackDelay = 500 * time.Millisecond
)

type subscriberFactory func(consumerGroup string) (message.Subscriber, error)

// Bus moves event envelopes over a watermill publisher and subscriber pair.
type Bus struct {
	publisher     message.Publisher
	newSubscriber subscriberFactory
	logger        *slog.Logger
	nackDelay     time.Duration

	mu          sync.Mutex
	subscribers []message.Subscriber
	closed      bool
}

func newBus(publisher message.Publisher, factory subscriberFactory, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		publisher:     publisher,
		newSubscriber: factory,
		logger:        logger,
		nackDelay:     defaultNackDelay,
	}
}

func watermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return watermill.NewSlogLogger(logger.With("module", "internal/platform/messaging", "layer", "platform"))
}

func (b *Bus) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	msg := message.NewMessage(event.EventID, payload)
	msg.Metadata.Set(metadataEventType, event.EventType)
	msg.Metadata.Set(metadataPartitionKey, event.PartitionKey)
	msg.SetContext(ctx)

	if err := b.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.EventID, topic, err)
	}
	b.logger.Debug("event published",
		"event", "bus_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
	return nil
}

// Subscribe starts consuming topic in the background and returns once the
// subscription is live. A handler error nacks the message for redelivery.
func (b *Bus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errors.New("bus is closed")
	}
	subscriber, err := b.newSubscriber(consumerGroup)
	if err != nil {
		b.mu.Unlock()
		return fmt.Errorf("create subscriber for %s: %w", consumerGroup, err)
	}
	b.subscribers = append(b.subscribers, subscriber)
	b.mu.Unlock()

	messages, err := subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	b.logger.Info("bus subscription started",
		"event", "bus_subscribe",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"consumer_group", consumerGroup,
	)

	go func() {
		for msg := range messages {
			b.consume(ctx, topic, consumerGroup, msg, handler)
		}
	}()
	return nil
}

func (b *Bus) consume(
	ctx context.Context,
	topic string,
	consumerGroup string,
	msg *message.Message,
	handler func(context.Context, ports.EventEnvelope) error,
) {
	var envelope ports.EventEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		b.logger.Warn("undecodable message dropped",
			"event", "bus_consume_undecodable",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"message_uuid", msg.UUID,
			"error", err.Error(),
		)
		msg.Ack()
		return
	}

	if err := handler(msg.Context(), envelope); err != nil {
		b.logger.Error("consumer handler failed",
			"event", "bus_consume_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"consumer_group", consumerGroup,
			"event_id", envelope.EventID,
			"event_type", envelope.EventType,
			"error", err.Error(),
		)
		timer := time.NewTimer(b.nackDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
		msg.Nack()
		return
	}
	msg.Ack()
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	errs := []error{b.publisher.Close()}
	for _, subscriber := range b.subscribers {
		errs = append(errs, subscriber.Close())
	}
	return errors.Join(errs...)
}
