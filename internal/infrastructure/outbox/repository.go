package outbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Insert(ctx context.Context, tx pgx.Tx, e *Event) error
	FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]Event, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause error) error
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

// Insert chỉ chạy trong tx của thay đổi nghiệp vụ
func (r *postgresRepository) Insert(ctx context.Context, tx pgx.Tx, e *Event) error {
	query := `
		INSERT INTO outbox_events (id, event_type, aggregate_type, aggregate_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	if err := tx.QueryRow(ctx, query,
		e.ID, e.EventType, e.AggregateType, e.AggregateID, []byte(e.Payload),
	).Scan(&e.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

func (r *postgresRepository) FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]Event, error) {
	query := `
		SELECT id, event_type, aggregate_type, aggregate_id, payload, attempt_count, last_error, created_at
		FROM outbox_events
		WHERE published_at IS NULL AND attempt_count < $2
		ORDER BY created_at, id
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outbox events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var payload []byte
		if err := rows.Scan(
			&e.ID,
			&e.EventType,
			&e.AggregateType,
			&e.AggregateID,
			&payload,
			&e.AttemptCount,
			&e.LastError,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		e.Payload = payload
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *postgresRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE outbox_events SET published_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event published: %w", err)
	}
	return nil
}

func (r *postgresRepository) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE outbox_events
		SET attempt_count = attempt_count + 1, last_error = $2
		WHERE id = $1
	`, id, cause.Error())
	if err != nil {
		return fmt.Errorf("failed to mark outbox event failed: %w", err)
	}
	return nil
}
