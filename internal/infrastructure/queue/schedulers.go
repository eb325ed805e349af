package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"bookstore-fulfillment/internal/config"
	"bookstore-fulfillment/internal/shared"
	"bookstore-fulfillment/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redisOpt asynq.RedisClientOpt, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

// PeriodicJob là một entry cron của worker.
type PeriodicJob struct {
	Name     string
	Cron     string
	TaskType string
	Payload  interface{}
	Opts     []asynq.Option
}

// Jobs trả về danh sách job định kỳ theo config.
func (s *Scheduler) Jobs() []PeriodicJob {
	return []PeriodicJob{
		// ================================================
		// JOB 1: Expire payment reservations (mỗi phút)
		// ================================================
		{
			Name:     "ExpireReservations",
			Cron:     s.jobConfig.ExpirySweepCron,
			TaskType: shared.TypeExpireReservations,
			Payload:  shared.ExpireReservationsPayload{BatchSize: s.jobConfig.ExpiryBatchSize},
			Opts: []asynq.Option{
				asynq.Queue(shared.QueueCritical),
				asynq.MaxRetry(0), // phút sau chạy lại
				asynq.Timeout(50 * time.Second),
				asynq.Unique(55 * time.Second),
			},
		},
		// ================================================
		// JOB 2: Outbox relay (mỗi phút)
		// ================================================
		{
			Name:     "RelayOutbox",
			Cron:     s.jobConfig.OutboxRelayCron,
			TaskType: shared.TypeRelayOutbox,
			Payload:  shared.RelayOutboxPayload{BatchSize: s.jobConfig.OutboxBatchSize},
			Opts: []asynq.Option{
				asynq.Queue(shared.QueueDefault),
				asynq.MaxRetry(0),
				asynq.Timeout(50 * time.Second),
				asynq.Unique(55 * time.Second),
			},
		},
	}
}

func (s *Scheduler) RegisterJobs() error {
	for _, job := range s.Jobs() {
		payload, err := json.Marshal(job.Payload)
		if err != nil {
			return err
		}

		task := asynq.NewTask(job.TaskType, payload)
		if _, err := s.scheduler.Register(job.Cron, task, job.Opts...); err != nil {
			logger.Error("Failed to register "+job.Name+" job", err)
			return err
		}

		logger.Info("✓ Registered "+job.Name, map[string]interface{}{"cron": job.Cron})
	}
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

// StartAsync không block, dùng khi worker server chạy cùng process.
func (s *Scheduler) StartAsync() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
