package main

import (
	"bookstore-fulfillment/internal/infrastructure/queue"
	"bookstore-fulfillment/pkg/logger"
)

// asynqScheduler wraps queue.Scheduler
type asynqScheduler struct {
	*queue.Scheduler
}

func setupScheduler(cfg *Config) (*asynqScheduler, error) {
	scheduler := queue.NewScheduler(cfg.redisOpt(), cfg.Jobs)

	if err := scheduler.RegisterJobs(); err != nil {
		return nil, err
	}
	if err := scheduler.StartAsync(); err != nil {
		return nil, err
	}
	logger.Info("[Scheduler] started", nil)

	return &asynqScheduler{Scheduler: scheduler}, nil
}

func (s *asynqScheduler) Shutdown() {
	logger.Info("[Scheduler] shutting down...", nil)
	s.Scheduler.Shutdown()
	logger.Info("[Scheduler] ✓ stopped", nil)
}
