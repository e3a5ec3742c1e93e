package entities

import "time"

// WorkflowEvent describes a committed transition. It is built after commit and
// is not persisted by the workflow itself.
type WorkflowEvent struct {
	EventID        string
	EventType      string
	RequestID      string
	Operation      Operation
	From           State
	To             State
	ActorID        string
	ActorRole      ActorRole
	Reason         string
	OfferID        string
	OfferName      string
	AdvertiserID   string
	AdvertiserName string
	PublisherID    string
	OccurredAt     time.Time
}

func EventTypeFor(op Operation) string {
	return "creative_request." + string(op)
}

func NewWorkflowEvent(eventID string, request CreativeRequest, entry HistoryEntry) WorkflowEvent {
	return WorkflowEvent{
		EventID:        eventID,
		EventType:      EventTypeFor(entry.Operation),
		RequestID:      request.RequestID,
		Operation:      entry.Operation,
		From:           State{Status: entry.FromStatus, Stage: entry.FromStage},
		To:             State{Status: entry.ToStatus, Stage: entry.ToStage},
		ActorID:        entry.ActorID,
		ActorRole:      entry.ActorRole,
		Reason:         entry.Reason,
		OfferID:        request.OfferID,
		OfferName:      request.OfferName,
		AdvertiserID:   request.AdvertiserID,
		AdvertiserName: request.AdvertiserName,
		PublisherID:    request.PublisherID,
		OccurredAt:     entry.CreatedAt,
	}
}
