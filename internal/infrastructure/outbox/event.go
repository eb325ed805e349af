package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventPaymentSettled     EventType = "payment.settled"
	EventOrderStatusChanged EventType = "order.status_changed"
	EventCheckoutCompleted  EventType = "checkout.completed"
)

type AggregateType string

const (
	AggregateGroupOrder AggregateType = "group_order"
	AggregateOrder      AggregateType = "order"
)

// Event is one row of outbox_events. Payload is the JSON envelope.
type Event struct {
	ID            uuid.UUID       `json:"id"`
	EventType     EventType       `json:"event_type"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	Payload       json.RawMessage `json:"payload"`
	AttemptCount  int             `json:"attempt_count"`
	LastError     *string         `json:"last_error,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	PublishedAt   *time.Time      `json:"published_at,omitempty"`
}

// Envelope wraps the domain data so consumers can dedupe on EventID.
type Envelope struct {
	EventID    uuid.UUID       `json:"event_id"`
	EventType  EventType       `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}
