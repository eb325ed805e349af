package shared

// Asynq task types
const (
	TypeExpireReservations = "payment:expire_reservations"
	TypeRelayOutbox        = "outbox:relay"
)

// Asynq queues
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// ExpireReservationsPayload is the scheduled sweep payload.
type ExpireReservationsPayload struct {
	BatchSize int `json:"batch_size"`
}

// RelayOutboxPayload is the scheduled outbox relay payload.
type RelayOutboxPayload struct {
	BatchSize int `json:"batch_size"`
}
