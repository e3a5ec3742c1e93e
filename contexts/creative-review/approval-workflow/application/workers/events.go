package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
	"creativehub/contexts/creative-review/approval-workflow/ports"
	contractsv1 "creativehub/contracts/gen/events/v1"
)

const (
	WorkflowEventsTopic = "creative-review.workflow-events"

	sourceService         = "approval-workflow"
	workflowSchemaVersion = 1
	partitionKeyPath      = "request_id"
)

// workflowEventData is the JSON body carried in the envelope's data field.
type workflowEventData struct {
	RequestID      string    `json:"request_id"`
	Operation      string    `json:"operation"`
	FromStatus     string    `json:"from_status"`
	FromStage      string    `json:"from_stage"`
	ToStatus       string    `json:"to_status"`
	ToStage        string    `json:"to_stage"`
	ActorID        string    `json:"actor_id"`
	ActorRole      string    `json:"actor_role"`
	Reason         string    `json:"reason,omitempty"`
	OfferID        string    `json:"offer_id"`
	OfferName      string    `json:"offer_name,omitempty"`
	AdvertiserID   string    `json:"advertiser_id"`
	AdvertiserName string    `json:"advertiser_name,omitempty"`
	PublisherID    string    `json:"publisher_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// EncodeWorkflowEvent wraps an event in the canonical envelope. The trace id
// comes from the active span when there is one.
func EncodeWorkflowEvent(ctx context.Context, event entities.WorkflowEvent) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(workflowEventData{
		RequestID:      event.RequestID,
		Operation:      string(event.Operation),
		FromStatus:     string(event.From.Status),
		FromStage:      string(event.From.Stage),
		ToStatus:       string(event.To.Status),
		ToStage:        string(event.To.Stage),
		ActorID:        event.ActorID,
		ActorRole:      string(event.ActorRole),
		Reason:         event.Reason,
		OfferID:        event.OfferID,
		OfferName:      event.OfferName,
		AdvertiserID:   event.AdvertiserID,
		AdvertiserName: event.AdvertiserName,
		PublisherID:    event.PublisherID,
		OccurredAt:     event.OccurredAt.UTC(),
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}

	traceID := event.EventID
	if spanContext := trace.SpanContextFromContext(ctx); spanContext.HasTraceID() {
		traceID = spanContext.TraceID().String()
	}
	return ports.EventEnvelope{
		EventID:          event.EventID,
		EventType:        event.EventType,
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          traceID,
		SchemaVersion:    workflowSchemaVersion,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     event.RequestID,
		Data:             payload,
	}, nil
}

func DecodeWorkflowEvent(envelope ports.EventEnvelope) (entities.WorkflowEvent, error) {
	if err := envelope.Check(); err != nil {
		return entities.WorkflowEvent{}, err
	}
	if !strings.HasPrefix(envelope.EventType, contractsv1.CreativeRequestEventPrefix) {
		return entities.WorkflowEvent{}, fmt.Errorf("unsupported event type %q", envelope.EventType)
	}
	if envelope.SchemaVersion != workflowSchemaVersion {
		return entities.WorkflowEvent{}, fmt.Errorf("unsupported schema version %d", envelope.SchemaVersion)
	}
	if err := contractsv1.ValidateData(envelope); err != nil {
		return entities.WorkflowEvent{}, fmt.Errorf("workflow event payload: %w", err)
	}
	var data workflowEventData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return entities.WorkflowEvent{}, fmt.Errorf("decode workflow event payload: %w", err)
	}
	if strings.TrimSpace(data.RequestID) == "" {
		return entities.WorkflowEvent{}, fmt.Errorf("workflow event payload missing request_id")
	}
	op, ok := entities.ParseOperation(data.Operation)
	if !ok {
		return entities.WorkflowEvent{}, fmt.Errorf("workflow event has unknown operation %q", data.Operation)
	}
	occurredAt := data.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = envelope.OccurredAt.UTC()
	}
	return entities.WorkflowEvent{
		EventID:        envelope.EventID,
		EventType:      envelope.EventType,
		RequestID:      data.RequestID,
		Operation:      op,
		From:           entities.State{Status: entities.RequestStatus(data.FromStatus), Stage: entities.ApprovalStage(data.FromStage)},
		To:             entities.State{Status: entities.RequestStatus(data.ToStatus), Stage: entities.ApprovalStage(data.ToStage)},
		ActorID:        data.ActorID,
		ActorRole:      entities.ActorRole(data.ActorRole),
		Reason:         data.Reason,
		OfferID:        data.OfferID,
		OfferName:      data.OfferName,
		AdvertiserID:   data.AdvertiserID,
		AdvertiserName: data.AdvertiserName,
		PublisherID:    data.PublisherID,
		OccurredAt:     occurredAt,
	}, nil
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
