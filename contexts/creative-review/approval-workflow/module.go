package approvalworkflow

import (
	"context"
	"log/slog"

	httpadapter "creativehub/contexts/creative-review/approval-workflow/adapters/http"
	"creativehub/contexts/creative-review/approval-workflow/adapters/memory"
	"creativehub/contexts/creative-review/approval-workflow/adapters/notify"
	"creativehub/contexts/creative-review/approval-workflow/adapters/sanitize"
	"creativehub/contexts/creative-review/approval-workflow/application/commands"
	"creativehub/contexts/creative-review/approval-workflow/application/queries"
	"creativehub/contexts/creative-review/approval-workflow/application/workers"
	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
	"creativehub/contexts/creative-review/approval-workflow/ports"

	"go.opentelemetry.io/otel/trace"
)

type Module struct {
	Handler    httpadapter.Handler
	Dispatcher *workers.AsyncDispatcher
	Store      *memory.Store
}

type Dependencies struct {
	Requests    ports.RequestReader
	History     ports.HistoryReader
	Creator     ports.RequestCreator
	Store       ports.TransitionStore
	Sinks       []ports.NotificationSink
	Dispatch    workers.DispatcherConfig
	Metrics     ports.TransitionMetrics
	Delivery    ports.DispatchMetrics
	Sanitizer   ports.CommentSanitizer
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Tracer      trace.Tracer
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	sanitizer := deps.Sanitizer
	if sanitizer == nil {
		sanitizer = sanitize.HTMLSanitizer{}
	}
	dispatcher := workers.NewAsyncDispatcher(deps.Dispatch, deps.Sinks, deps.Delivery, deps.Logger)

	transitions := commands.TransitionUseCase{
		Requests:   deps.Requests,
		Store:      deps.Store,
		Dispatcher: dispatcher,
		Sanitizer:  sanitizer,
		Clock:      deps.Clock,
		IDGen:      deps.IDGenerator,
		Metrics:    deps.Metrics,
		Tracer:     deps.Tracer,
		Logger:     deps.Logger,
	}
	submit := commands.SubmitRequestUseCase{
		Requests: deps.Creator,
		Clock:    deps.Clock,
		IDGen:    deps.IDGenerator,
		Logger:   deps.Logger,
	}
	query := queries.QueryUseCase{
		Requests: deps.Requests,
		History:  deps.History,
		Logger:   deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			Submit:  submit,
			Review:  commands.ReviewUseCase{Transitions: transitions},
			Queries: query,
			Logger:  deps.Logger,
		},
		Dispatcher: dispatcher,
	}
}

// NewInMemoryModule wires the memory store and logs every workflow event.
func NewInMemoryModule(seed []entities.CreativeRequest, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Requests:    store,
		History:     store,
		Creator:     store,
		Store:       store,
		Sinks:       []ports.NotificationSink{notify.LogSink{Logger: logger}},
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}

// Start runs the background notification workers until Stop or ctx ends.
func (m Module) Start(ctx context.Context) {
	m.Dispatcher.Start(ctx)
}

func (m Module) Stop(ctx context.Context) error {
	return m.Dispatcher.Stop(ctx)
}
