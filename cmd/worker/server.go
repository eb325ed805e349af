package main

import (
	"context"

	"github.com/hibiken/asynq"

	"bookstore-fulfillment/internal/shared"
	"bookstore-fulfillment/pkg/logger"
)

// asynqServer wraps asynq.Server
type asynqServer struct {
	*asynq.Server
}

func setupAsynqServer(cfg *Config, handlers *HandlerRegistry) (*asynqServer, error) {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	srv := asynq.NewServer(
		cfg.redisOpt(),
		asynq.Config{
			Queues: map[string]int{
				shared.QueueCritical: 6,
				shared.QueueDefault:  3,
				shared.QueueLow:      1,
			},
			Concurrency: cfg.Concurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.ErrorFields("[Asynq] task failed", err, map[string]interface{}{"type": task.Type()})
			}),
		},
	)

	// Start không block, Shutdown chờ task đang chạy xong
	if err := srv.Start(mux); err != nil {
		return nil, err
	}
	logger.Info("[Worker] started", map[string]interface{}{"concurrency": cfg.Concurrency})

	return &asynqServer{Server: srv}, nil
}

func (s *asynqServer) Shutdown() {
	logger.Info("[Worker] shutting down...", nil)
	s.Server.Shutdown()
	logger.Info("[Worker] ✓ stopped", nil)
}
