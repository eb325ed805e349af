package main

import (
	"github.com/hibiken/asynq"

	paymentJob "bookstore-fulfillment/internal/domains/payment/job"
	queueHandlers "bookstore-fulfillment/internal/infrastructure/queue/handlers"
	"bookstore-fulfillment/internal/shared"
	"bookstore-fulfillment/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	expireReservations *paymentJob.ExpireReservationsHandler
	relayOutbox        asynq.HandlerFunc
}

func initializeHandlers(c *container.Container, cfg *Config) *HandlerRegistry {
	return &HandlerRegistry{
		expireReservations: c.ExpireReservations,
		relayOutbox:        queueHandlers.RelayOutboxHandler(c.Relay, cfg.Jobs.OutboxBatchSize, c.Metrics.Jobs),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	// Payment
	mux.Handle(shared.TypeExpireReservations, h.expireReservations)

	// Outbox
	mux.Handle(shared.TypeRelayOutbox, h.relayOutbox)
}
