package workers

import (
	"context"
	"log/slog"
	"sync"

	application "creativehub/contexts/creative-review/approval-workflow/application"
	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
	"creativehub/contexts/creative-review/approval-workflow/ports"
)

const (
	defaultQueueSize = 256
	defaultWorkers   = 2
)

type DispatcherConfig struct {
	QueueSize int
	Workers   int
	Retry     RetryPolicy
}

type dispatchItem struct {
	ctx   context.Context
	event entities.WorkflowEvent
}

// AsyncDispatcher queues committed workflow events and delivers them to every
// sink from background workers. A full queue drops the event.
type AsyncDispatcher struct {
	sinks     []ports.NotificationSink
	metrics   ports.DispatchMetrics
	deliverer sinkDeliverer
	workers   int
	logger    *slog.Logger

	mu      sync.RWMutex
	queue   chan dispatchItem
	started bool
	closed  bool
	runCtx  context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewAsyncDispatcher(
	cfg DispatcherConfig,
	sinks []ports.NotificationSink,
	metrics ports.DispatchMetrics,
	logger *slog.Logger,
) *AsyncDispatcher {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &AsyncDispatcher{
		sinks:     append([]ports.NotificationSink(nil), sinks...),
		metrics:   metrics,
		deliverer: newSinkDeliverer(cfg.Retry, metrics, logger, "worker"),
		workers:   workers,
		logger:    application.ResolveLogger(logger),
		queue:     make(chan dispatchItem, queueSize),
	}
}

// Start launches the delivery workers. Cancelling ctx abandons retries in flight.
func (d *AsyncDispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	d.runCtx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	d.logger.Info("workflow dispatcher started",
		"event", "workflow_dispatcher_started",
		"module", application.ModuleName,
		"layer", "worker",
		"workers", d.workers,
		"queue_size", cap(d.queue),
		"sinks", len(d.sinks),
	)
}

// Dispatch never blocks and never fails the caller.
func (d *AsyncDispatcher) Dispatch(ctx context.Context, event entities.WorkflowEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(event, "dispatcher_stopped")
		return
	}
	select {
	case d.queue <- dispatchItem{ctx: context.WithoutCancel(ctx), event: event}:
	default:
		d.drop(event, "queue_full")
	}
}

// Stop refuses new events and waits for queued ones to be delivered, or for
// ctx to end, whichever comes first.
func (d *AsyncDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *AsyncDispatcher) run() {
	defer d.wg.Done()
	for item := range d.queue {
		d.deliverAll(item)
	}
}

func (d *AsyncDispatcher) deliverAll(item dispatchItem) {
	ctx, stop := context.WithCancel(item.ctx)
	defer stop()
	// Shutdown past the drain deadline aborts pending retries.
	go func() {
		select {
		case <-d.runCtx.Done():
			stop()
		case <-ctx.Done():
		}
	}()
	for _, sink := range d.sinks {
		_ = d.deliverer.deliver(ctx, sink, item.event)
	}
}

func (d *AsyncDispatcher) drop(event entities.WorkflowEvent, reason string) {
	if d.metrics != nil {
		d.metrics.ObserveDropped()
	}
	d.logger.Warn("workflow event dropped",
		"event", "workflow_event_dropped",
		"module", application.ModuleName,
		"layer", "worker",
		"reason", reason,
		"event_id", event.EventID,
		"request_id", event.RequestID,
		"event_type", event.EventType,
	)
}
