package job

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"bookstore-fulfillment/internal/shared"
	"bookstore-fulfillment/internal/shared/utils"
	"bookstore-fulfillment/pkg/logger"
	"bookstore-fulfillment/pkg/metrics"
)

type Sweeper interface {
	ExpireStale(ctx context.Context, now time.Time, batch int) (int, error)
}

// ExpireReservationsHandler chạy sweep mỗi phút (scheduler của worker).
type ExpireReservationsHandler struct {
	sweeper      Sweeper
	defaultBatch int
	metrics      *metrics.CronJobMetrics
	now          func() time.Time
}

func NewExpireReservationsHandler(sweeper Sweeper, defaultBatch int, m *metrics.CronJobMetrics) *ExpireReservationsHandler {
	return &ExpireReservationsHandler{
		sweeper:      sweeper,
		defaultBatch: defaultBatch,
		metrics:      m,
		now:          time.Now,
	}
}

func (h *ExpireReservationsHandler) ProcessTask(ctx context.Context, t *asynq.Task) (err error) {
	done := h.metrics.Track(shared.TypeExpireReservations)
	defer func() { done(err) }()

	var payload shared.ExpireReservationsPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		// payload hỏng thì retry cũng vô ích
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	batch := payload.BatchSize
	if batch <= 0 {
		batch = h.defaultBatch
	}

	expired, err := h.sweeper.ExpireStale(ctx, h.now(), batch)
	if err != nil {
		logger.Error("expire reservations sweep failed", err)
		return err
	}
	if expired > 0 {
		logger.Info("expired payment reservations", map[string]interface{}{"count": expired})
	}
	return nil
}
