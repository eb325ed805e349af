package outbox

import (
	"context"
	"fmt"
	"strings"

	"bookstore-fulfillment/pkg/logger"
)

const DefaultMaxAttempts = 10

// Publisher is satisfied by *kafka.Publisher.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// Relay đẩy các event chưa publish lên Kafka. Publish chạy ngoài mọi tx;
// giao hàng at-least-once, consumer dedupe bằng event_id trong envelope.
type Relay struct {
	repo        Repository
	publisher   Publisher
	topicPrefix string
	maxAttempts int
}

func NewRelay(repo Repository, publisher Publisher, topicPrefix string) *Relay {
	return &Relay{
		repo:        repo,
		publisher:   publisher,
		topicPrefix: topicPrefix,
		maxAttempts: DefaultMaxAttempts,
	}
}

// Topic maps "payment.settled" to "<prefix>.payment.settled".
func (r *Relay) Topic(t EventType) string {
	if r.topicPrefix == "" {
		return string(t)
	}
	return strings.TrimSuffix(r.topicPrefix, ".") + "." + string(t)
}

// RunOnce publishes up to batch events and returns how many went out.
func (r *Relay) RunOnce(ctx context.Context, batch int) (int, error) {
	if r.publisher == nil {
		return 0, nil
	}

	events, err := r.repo.FetchUnpublished(ctx, batch, r.maxAttempts)
	if err != nil {
		return 0, err
	}

	published := 0
	var failed int
	for _, e := range events {
		if ctx.Err() != nil {
			return published, ctx.Err()
		}

		if err := r.publisher.Publish(ctx, r.Topic(e.EventType), e.AggregateID.String(), e.Payload); err != nil {
			failed++
			logger.Warn("outbox publish failed", map[string]interface{}{
				"event_id":      e.ID,
				"event_type":    e.EventType,
				"attempt_count": e.AttemptCount + 1,
				"error":         err.Error(),
			})
			if markErr := r.repo.MarkFailed(ctx, e.ID, err); markErr != nil {
				return published, markErr
			}
			continue
		}

		if err := r.repo.MarkPublished(ctx, e.ID); err != nil {
			return published, err
		}
		published++
	}

	if failed > 0 {
		return published, fmt.Errorf("%d outbox events failed to publish", failed)
	}
	return published, nil
}
