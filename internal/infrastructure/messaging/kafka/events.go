package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	domainCons "github.com/turtacn/PatentCliff/internal/domain/consolidation"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

// Event types.
const (
	EventRecordsIngested        = "records.ingested"
	EventConsolidationCompleted = "consolidation.completed"
)

// SchemaVersion is stamped on every envelope this package produces.
const SchemaVersion = "v1"

// EventEnvelope standardizes event messages.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version,omitempty"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// RecordsIngestedPayload is one batch of raw source records to consolidate.
type RecordsIngestedPayload struct {
	Query   string           `json:"query,omitempty"`
	Records []map[string]any `json:"records"`
	// Options is passed through to the pipeline unchanged.
	Options json.RawMessage `json:"options,omitempty"`
}

func NewEventEnvelope(eventType, source string, payload any) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: SchemaVersion,
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the payload into target.  A missing payload is
// a validation error.
func (e *EventEnvelope) DecodePayload(target any) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeValidation, "event has no payload")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode payload")
	}
	return nil
}

func (e *EventEnvelope) ToMessage(topic string, key []byte) (*ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}
	headers := map[string]string{
		"event_type":     e.EventType,
		"source_service": e.Source,
		"schema_version": e.SchemaVersion,
	}
	if e.TraceID != "" {
		headers["trace_id"] = e.TraceID
	}
	return &ProducerMessage{
		Topic:     topic,
		Key:       key,
		Value:     val,
		Headers:   headers,
		Timestamp: e.Timestamp,
	}, nil
}

func MessageToEventEnvelope(msg *Message) (*EventEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal envelope")
	}
	if env.EventType == "" {
		return nil, errors.New(errors.ErrCodeValidation, "envelope has no event_type")
	}
	return &env, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Completion events
// ─────────────────────────────────────────────────────────────────────────────

// CompletedPublisher announces finished runs, keyed by run id so events of
// one run stay ordered on a partition.
type CompletedPublisher struct {
	pub    Publisher
	topic  string
	source string
}

func NewCompletedPublisher(pub Publisher, topic, source string) *CompletedPublisher {
	return &CompletedPublisher{pub: pub, topic: topic, source: source}
}

func (p *CompletedPublisher) PublishCompleted(ctx context.Context, event domainCons.CompletedEvent) error {
	env, err := NewEventEnvelope(EventConsolidationCompleted, p.source, event)
	if err != nil {
		return err
	}
	env.TraceID = event.RunID
	msg, err := env.ToMessage(p.topic, []byte(event.RunID))
	if err != nil {
		return err
	}
	return p.pub.Publish(ctx, msg)
}

//Personal.AI order the ending
