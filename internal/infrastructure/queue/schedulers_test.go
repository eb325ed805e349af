package queue

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore-fulfillment/internal/config"
	"bookstore-fulfillment/internal/shared"
)

func TestScheduler_JobsFollowConfig(t *testing.T) {
	s := NewScheduler(asynq.RedisClientOpt{Addr: "localhost:6379"}, config.JobConfig{
		ExpirySweepCron: "* * * * *",
		ExpiryBatchSize: 100,
		OutboxRelayCron: "*/2 * * * *",
		OutboxBatchSize: 50,
	})

	jobs := s.Jobs()
	require.Len(t, jobs, 2)

	assert.Equal(t, shared.TypeExpireReservations, jobs[0].TaskType)
	assert.Equal(t, "* * * * *", jobs[0].Cron)
	assert.Equal(t, shared.ExpireReservationsPayload{BatchSize: 100}, jobs[0].Payload)

	assert.Equal(t, shared.TypeRelayOutbox, jobs[1].TaskType)
	assert.Equal(t, "*/2 * * * *", jobs[1].Cron)
	assert.Equal(t, shared.RelayOutboxPayload{BatchSize: 50}, jobs[1].Payload)
}
