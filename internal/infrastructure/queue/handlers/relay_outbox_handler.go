package handlers

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"bookstore-fulfillment/internal/shared"
	"bookstore-fulfillment/pkg/logger"
	"bookstore-fulfillment/pkg/metrics"
)

type OutboxRelay interface {
	RunOnce(ctx context.Context, batch int) (int, error)
}

// RelayOutboxHandler publish outbox_events lên Kafka theo lịch.
func RelayOutboxHandler(relay OutboxRelay, defaultBatch int, m *metrics.CronJobMetrics) func(ctx context.Context, t *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) (err error) {
		done := m.Track(shared.TypeRelayOutbox)
		defer func() { done(err) }()

		var p shared.RelayOutboxPayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &p); err != nil {
				return asynq.SkipRetry // Sai format payload, skip retry
			}
		}
		batch := p.BatchSize
		if batch <= 0 {
			batch = defaultBatch
		}

		published, err := relay.RunOnce(ctx, batch)
		if err != nil {
			return err // DB lỗi, retry lại
		}
		if published > 0 {
			logger.Debug("outbox relay published", map[string]interface{}{"count": published})
		}
		return nil
	}
}
