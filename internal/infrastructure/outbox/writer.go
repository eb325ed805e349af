package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"bookstore-fulfillment/pkg/logger"
)

// Writer queues domain events inside the caller's transaction.
type Writer struct {
	repo Repository
}

func NewWriter(repo Repository) *Writer {
	return &Writer{repo: repo}
}

func (w *Writer) Emit(ctx context.Context, tx pgx.Tx, eventType EventType, aggType AggregateType, aggID uuid.UUID, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	env := Envelope{
		EventID:    uuid.New(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	e := &Event{
		ID:            env.EventID,
		EventType:     eventType,
		AggregateType: aggType,
		AggregateID:   aggID,
		Payload:       payload,
	}
	if err := w.repo.Insert(ctx, tx, e); err != nil {
		return err
	}

	logger.Debug("outbox event queued", map[string]interface{}{
		"event_id":     e.ID,
		"event_type":   eventType,
		"aggregate_id": aggID,
	})
	return nil
}
