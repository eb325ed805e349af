package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore-fulfillment/internal/shared"
)

type stubSweeper struct {
	batch int
	now   time.Time
	err   error
}

func (s *stubSweeper) ExpireStale(ctx context.Context, now time.Time, batch int) (int, error) {
	s.batch = batch
	s.now = now
	return 3, s.err
}

func TestExpireReservations_UsesPayloadBatch(t *testing.T) {
	sw := &stubSweeper{}
	h := NewExpireReservationsHandler(sw, 100, nil)
	fixed := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	payload, _ := json.Marshal(shared.ExpireReservationsPayload{BatchSize: 25})
	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeExpireReservations, payload)))
	assert.Equal(t, 25, sw.batch)
	assert.Equal(t, fixed, sw.now)
}

func TestExpireReservations_DefaultBatch(t *testing.T) {
	sw := &stubSweeper{}
	h := NewExpireReservationsHandler(sw, 100, nil)

	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeExpireReservations, nil)))
	assert.Equal(t, 100, sw.batch)
}

func TestExpireReservations_BadPayloadSkipsRetry(t *testing.T) {
	h := NewExpireReservationsHandler(&stubSweeper{}, 100, nil)

	err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeExpireReservations, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestExpireReservations_PropagatesError(t *testing.T) {
	h := NewExpireReservationsHandler(&stubSweeper{err: errors.New("db down")}, 100, nil)

	err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeExpireReservations, nil))
	assert.Error(t, err)
}
