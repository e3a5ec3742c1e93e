package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	approvalworkflow "creativehub/contexts/creative-review/approval-workflow"
	"creativehub/contexts/creative-review/approval-workflow/adapters/memory"
	postgresadapter "creativehub/contexts/creative-review/approval-workflow/adapters/postgres"
	redisadapter "creativehub/contexts/creative-review/approval-workflow/adapters/redis"
	"creativehub/contexts/creative-review/approval-workflow/application/workers"
	"creativehub/contexts/creative-review/approval-workflow/ports"
	"creativehub/internal/platform/config"
	"creativehub/internal/platform/db"
	"creativehub/internal/platform/httpserver"
	"creativehub/internal/platform/messaging"
	"creativehub/internal/platform/observability"

	"github.com/redis/go-redis/v9"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server        *httpserver.Server
	workflow      approvalworkflow.Module
	consumer      *workers.NotificationConsumer
	drainTimeout  time.Duration
	closers       []func() error
	shutdownTrace observability.ShutdownFunc
	logger        *slog.Logger
}

type WorkerApp struct {
	consumer      workers.NotificationConsumer
	closers       []func() error
	shutdownTrace observability.ShutdownFunc
	logger        *slog.Logger
}

func newLogger(cfg config.Config, process string) *slog.Logger {
	return observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat).
		With("service", cfg.ServiceName, "process", process)
}

func BuildAPI(ctx context.Context, cfg config.Config) (*APIApp, error) {
	logger := newLogger(cfg, "api")
	app := &APIApp{drainTimeout: cfg.Dispatcher.DrainTimeout, logger: logger}

	tracer, shutdownTrace, err := observability.NewTracer(ctx, tracingOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	app.shutdownTrace = shutdownTrace
	metrics := observability.NewMetrics()

	deps, closeStore, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeStore)

	notifiers, err := buildNotifiers(cfg, logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	bus, err := buildBus(cfg, logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	if bus != nil {
		app.closers = append(app.closers, bus.Close)
		deps.Sinks = []ports.NotificationSink{workers.BusSink{Publisher: bus, Topic: workers.WorkflowEventsTopic}}
	} else {
		deps.Sinks = notifiers
	}
	// The in-process bus has no other reader, so the API consumes its own events.
	if cfg.BusDriver == config.BusGoChannel {
		app.consumer = &workers.NotificationConsumer{
			Subscriber:    bus,
			Sinks:         notifiers,
			Metrics:       metrics,
			Retry:         retryPolicy(cfg),
			Topic:         workers.WorkflowEventsTopic,
			ConsumerGroup: cfg.ConsumerGroup,
			DedupTTL:      cfg.DedupTTL,
			Logger:        logger,
		}
	}

	rateLimiter, closeLimiter, err := buildLimiter(cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.closers = append(app.closers, closeLimiter)

	deps.Dispatch = workers.DispatcherConfig{
		QueueSize: cfg.Dispatcher.QueueSize,
		Workers:   cfg.Dispatcher.Workers,
		Retry:     retryPolicy(cfg),
	}
	deps.Metrics = metrics
	deps.Delivery = metrics
	deps.Tracer = tracer
	deps.Logger = logger

	app.workflow = approvalworkflow.NewModule(deps)
	app.server = httpserver.New(app.workflow, logger, httpserver.Options{
		Addr:    normalizeAddr(cfg.HTTPPort),
		Metrics: metrics,
		Limiter: rateLimiter,
	})
	return app, nil
}

func BuildWorker(ctx context.Context, cfg config.Config) (*WorkerApp, error) {
	logger := newLogger(cfg, "worker")
	if cfg.BusDriver != config.BusKafka {
		return nil, fmt.Errorf("worker needs BUS_DRIVER=%s, got %q", config.BusKafka, cfg.BusDriver)
	}
	app := &WorkerApp{logger: logger}

	_, shutdownTrace, err := observability.NewTracer(ctx, tracingOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	app.shutdownTrace = shutdownTrace

	notifiers, err := buildNotifiers(cfg, logger)
	if err != nil {
		return nil, err
	}
	bus, err := buildBus(cfg, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, bus.Close)

	var dedup ports.EventDedupStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		client, err := newRedisClient(cfg.RedisURL)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.closers = append(app.closers, client.Close)
		dedup = redisadapter.NewDedupStore(client, logger)
	} else {
		logger.Warn("redis not configured, notifications may repeat on redelivery",
			"event", "bootstrap_worker_no_dedup",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

	app.consumer = workers.NotificationConsumer{
		Subscriber:    bus,
		Dedup:         dedup,
		Sinks:         notifiers,
		Metrics:       observability.NewMetrics(),
		Clock:         postgresadapter.SystemClock{},
		Retry:         retryPolicy(cfg),
		Topic:         workers.WorkflowEventsTopic,
		ConsumerGroup: cfg.ConsumerGroup,
		DedupTTL:      cfg.DedupTTL,
		Logger:        logger,
	}
	return app, nil
}

// Run serves HTTP until ctx ends, then drains queued notifications.
func (a *APIApp) Run(ctx context.Context) error {
	a.workflow.Start(ctx)
	if a.consumer != nil {
		if err := a.consumer.Start(ctx); err != nil {
			return err
		}
	}

	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	serveErr := make(chan error, 1)
	go func() { serveErr <- a.server.Start() }()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.drainTimeout+5*time.Second)
	defer cancel()
	errs := []error{runErr, a.server.Shutdown(shutdownCtx)}

	drainCtx, cancelDrain := context.WithTimeout(shutdownCtx, a.drainTimeout)
	defer cancelDrain()
	errs = append(errs, a.workflow.Stop(drainCtx))
	if a.shutdownTrace != nil {
		errs = append(errs, a.shutdownTrace(shutdownCtx))
	}
	a.logger.Info("api app stopped",
		"event", "bootstrap_api_stopped",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return errors.Join(errs...)
}

func (a *APIApp) Close() error {
	return closeAll(a.closers)
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.consumer.Start(ctx); err != nil {
		return err
	}
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"consumer_group", w.consumer.ConsumerGroup,
		"sinks", len(w.consumer.Sinks),
	)
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if w.shutdownTrace != nil {
		return w.shutdownTrace(shutdownCtx)
	}
	return nil
}

func (w *WorkerApp) Close() error {
	return closeAll(w.closers)
}

// closeAll runs closers in reverse construction order.
func closeAll(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if closers[i] != nil {
			errs = append(errs, closers[i]())
		}
	}
	return errors.Join(errs...)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}

func tracingOptions(cfg config.Config) observability.TracingOptions {
	return observability.TracingOptions{
		Enabled:     cfg.Telemetry.TracingEnabled,
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.OTLPInsecure,
	}
}

func retryPolicy(cfg config.Config) workers.RetryPolicy {
	return workers.RetryPolicy{
		MaxAttempts:     cfg.Dispatcher.MaxAttempts,
		BaseBackoff:     cfg.Dispatcher.BaseBackoff,
		MaxBackoff:      cfg.Dispatcher.MaxBackoff,
		DeliveryTimeout: cfg.Dispatcher.DeliveryTimeout,
	}
}

func newRedisClient(rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

func buildStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (approvalworkflow.Dependencies, func() error, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pg, err := db.Connect(cfg.PostgresDSN)
		if err != nil {
			return approvalworkflow.Dependencies{}, nil, err
		}
		if err := pg.Ping(ctx); err != nil {
			_ = pg.Close()
			return approvalworkflow.Dependencies{}, nil, err
		}
		if cfg.MigrateOnStart {
			if _, err := pg.Migrate(ctx, logger); err != nil {
				_ = pg.Close()
				return approvalworkflow.Dependencies{}, nil, err
			}
		}
		repo := postgresadapter.NewRepository(pg.DB, cfg.LockTimeout, logger)
		return approvalworkflow.Dependencies{
			Requests:    repo,
			History:     repo,
			Creator:     repo,
			Store:       repo,
			Clock:       postgresadapter.SystemClock{},
			IDGenerator: postgresadapter.UUIDGenerator{},
		}, pg.Close, nil
	default:
		store := memory.NewStore(nil)
		store.SetLockTimeout(cfg.LockTimeout)
		logger.Warn("using in-memory store, data is lost on restart",
			"event", "bootstrap_memory_store",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		return approvalworkflow.Dependencies{
			Requests:    store,
			History:     store,
			Creator:     store,
			Store:       store,
			Clock:       store,
			IDGenerator: store,
		}, nil, nil
	}
}

func buildBus(cfg config.Config, logger *slog.Logger) (*messaging.Bus, error) {
	switch cfg.BusDriver {
	case config.BusKafka:
		return messaging.NewKafkaBus(cfg.KafkaBrokers, logger)
	case config.BusGoChannel:
		return messaging.NewGoChannelBus(logger), nil
	default:
		return nil, nil
	}
}
