package v1

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Envelope wraps every event put on the bus. Fields are append-only so
// older consumers keep decoding newer producers.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

var (
	ErrMissingEventID   = errors.New("envelope event_id is required")
	ErrMissingEventType = errors.New("envelope event_type is required")
	ErrMissingData      = errors.New("envelope data is required")
)

// Check reports the first required header that is missing.
func (e Envelope) Check() error {
	switch {
	case strings.TrimSpace(e.EventID) == "":
		return ErrMissingEventID
	case strings.TrimSpace(e.EventType) == "":
		return ErrMissingEventType
	case len(e.Data) == 0:
		return ErrMissingData
	}
	return nil
}
