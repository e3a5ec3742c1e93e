package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	application "creativehub/contexts/creative-review/approval-workflow/application"
	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
	domainerrors "creativehub/contexts/creative-review/approval-workflow/domain/errors"
	"creativehub/contexts/creative-review/approval-workflow/ports"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultMaxAttempts     = 3
	defaultBaseBackoff     = 200 * time.Millisecond
	defaultMaxBackoff      = 5 * time.Second
	defaultDeliveryTimeout = 10 * time.Second
)

// RetryPolicy bounds how hard a sink is tried before the event is given up on.
type RetryPolicy struct {
	MaxAttempts     int
	BaseBackoff     time.Duration
	MaxBackoff      time.Duration
	DeliveryTimeout time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.BaseBackoff <= 0 {
		p.BaseBackoff = defaultBaseBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = defaultMaxBackoff
	}
	if p.DeliveryTimeout <= 0 {
		p.DeliveryTimeout = defaultDeliveryTimeout
	}
	return p
}

// schedule doubles from BaseBackoff per retry, capped at MaxBackoff, with
// 20% jitter either way. It stops after MaxAttempts-1 retries.
func (p RetryPolicy) schedule() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseBackoff
	exp.MaxInterval = p.MaxBackoff
	exp.Multiplier = 2
	exp.RandomizationFactor = 0.2
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithMaxRetries(exp, uint64(p.MaxAttempts-1))
}

type sinkDeliverer struct {
	policy  RetryPolicy
	metrics ports.DispatchMetrics
	logger  *slog.Logger
	layer   string
}

func newSinkDeliverer(policy RetryPolicy, metrics ports.DispatchMetrics, logger *slog.Logger, layer string) sinkDeliverer {
	return sinkDeliverer{
		policy:  policy.withDefaults(),
		metrics: metrics,
		logger:  application.ResolveLogger(logger),
		layer:   layer,
	}
}

// deliver tries one sink until it succeeds, attempts run out, or ctx is done.
// The returned error wraps ErrNotificationDispatch.
func (d sinkDeliverer) deliver(ctx context.Context, sink ports.NotificationSink, event entities.WorkflowEvent) error {
	attempt := 0
	attemptOnce := func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, d.policy.DeliveryTimeout)
		defer cancel()
		err := sink.Deliver(attemptCtx, event)
		if err == nil {
			return nil
		}
		d.logger.Warn("workflow notification attempt failed",
			"event", "workflow_notification_attempt_failed",
			"module", application.ModuleName,
			"layer", d.layer,
			"sink", sink.Name(),
			"event_id", event.EventID,
			"request_id", event.RequestID,
			"attempt", attempt,
			"error", err.Error(),
		)
		return err
	}
	onRetry := func(error, time.Duration) {
		d.observe(sink.Name(), "retry")
	}

	lastErr := backoff.RetryNotify(attemptOnce, backoff.WithContext(d.policy.schedule(), ctx), onRetry)
	if lastErr == nil {
		d.observe(sink.Name(), "delivered")
		return nil
	}

	d.observe(sink.Name(), "failed")
	err := fmt.Errorf("%w: sink %s: %v", domainerrors.ErrNotificationDispatch, sink.Name(), lastErr)
	d.logger.Error("workflow notification delivery failed",
		"event", "workflow_notification_failed",
		"module", application.ModuleName,
		"layer", d.layer,
		"sink", sink.Name(),
		"event_id", event.EventID,
		"request_id", event.RequestID,
		"event_type", event.EventType,
		"error", err.Error(),
	)
	return err
}

func (d sinkDeliverer) observe(sink string, result string) {
	if d.metrics != nil {
		d.metrics.ObserveDelivery(sink, result)
	}
}
