package ports

import (
	"context"
	"time"

	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
	contractsv1 "creativehub/contracts/gen/events/v1"
)

type SortField string
type SortOrder string

const (
	SortBySubmittedAt    SortField = "submitted_at"
	SortByPriority       SortField = "priority"
	SortByAdvertiserName SortField = "advertiser_name"

	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type RequestFilter struct {
	Status        entities.RequestStatus
	ApprovalStage entities.ApprovalStage
	Search        string
	AdvertiserID  string
	PublisherID   string
	ReviewedBy    string
	SortBy        SortField
	Order         SortOrder
	Offset        int
	Limit         int
}

// RequestReader is the read side shared by the engine's optimistic check and
// the query façade.
type RequestReader interface {
	GetRequest(ctx context.Context, requestID string) (entities.CreativeRequest, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]entities.CreativeRequest, int, error)
}

type HistoryReader interface {
	ListHistory(ctx context.Context, requestID string) ([]entities.HistoryEntry, error)
}

// RequestCreator is the intake path. Implementations reject existing ids.
type RequestCreator interface {
	CreateRequest(ctx context.Context, request entities.CreativeRequest) error
}

// LockedRequest only exists inside TransitionStore.WithLock. It is the only
// way to mutate a stored request or append history.
type LockedRequest interface {
	// Current is the row as read under the exclusive lock.
	Current() entities.CreativeRequest
	Save(ctx context.Context, request entities.CreativeRequest) error
	AppendHistory(ctx context.Context, entry entities.HistoryEntry) error
}

// TransitionStore runs fn while holding an exclusive lock on one request.
// Everything fn writes commits together when it returns nil and is discarded
// otherwise. Lock waits that exceed the store's limit return ErrTransientStore.
type TransitionStore interface {
	WithLock(ctx context.Context, requestID string, fn func(ctx context.Context, tx LockedRequest) error) error
}

// Dispatcher hands a committed event to the notification side. It must not
// block on delivery and reports nothing back to the workflow.
type Dispatcher interface {
	Dispatch(ctx context.Context, event entities.WorkflowEvent)
}

// CommentSanitizer turns user-supplied markup into plain text.
type CommentSanitizer interface {
	Sanitize(raw string) (string, error)
}

type NotificationSink interface {
	Name() string
	Deliver(ctx context.Context, event entities.WorkflowEvent) error
}

type TransitionMetrics interface {
	ObserveTransition(op entities.Operation, result string, elapsed time.Duration)
}

type DispatchMetrics interface {
	ObserveDelivery(sink string, result string)
	ObserveDropped()
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
	// ReleaseEvent drops a reservation so a redelivered copy is handled again.
	ReleaseEvent(ctx context.Context, eventID string) error
}
