package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookstore-fulfillment/internal/domains/payment/model"
	"bookstore-fulfillment/pkg/database"
)

const reservationColumns = `
	id, group_order_id, user_id, vnpay_txn_ref, amount, status, expires_at,
	gateway_transaction_no, bank_code, response_code, completed_at,
	created_at, updated_at
`

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) CreateReservation(ctx context.Context, tx pgx.Tx, res *model.Reservation) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	query := `
		INSERT INTO payment_reservations (
			id, group_order_id, user_id, vnpay_txn_ref, amount, status, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := tx.QueryRow(ctx, query,
		res.ID,
		res.GroupOrderID,
		res.UserID,
		res.TxnRef,
		res.Amount,
		res.Status,
		res.ExpiresAt,
	).Scan(&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		// txn ref trùng: sinh lại ở lần retry
		return database.TranslateError(fmt.Errorf("failed to create reservation: %w", err))
	}
	return nil
}

func (r *postgresRepository) LockByTxnRef(ctx context.Context, tx pgx.Tx, txnRef string) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM payment_reservations WHERE vnpay_txn_ref = $1 FOR UPDATE`

	var res model.Reservation
	err := tx.QueryRow(ctx, query, txnRef).Scan(
		&res.ID,
		&res.GroupOrderID,
		&res.UserID,
		&res.TxnRef,
		&res.Amount,
		&res.Status,
		&res.ExpiresAt,
		&res.GatewayTransactionNo,
		&res.BankCode,
		&res.ResponseCode,
		&res.CompletedAt,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, database.TranslateError(fmt.Errorf("failed to lock reservation: %w", err))
	}
	return &res, nil
}

func (r *postgresRepository) UpdateReservation(ctx context.Context, tx pgx.Tx, res *model.Reservation) error {
	query := `
		UPDATE payment_reservations
		SET status = $2,
		    gateway_transaction_no = $3,
		    bank_code = $4,
		    response_code = $5,
		    completed_at = $6,
		    updated_at = NOW()
		WHERE id = $1
	`
	_, err := tx.Exec(ctx, query,
		res.ID,
		res.Status,
		res.GatewayTransactionNo,
		res.BankCode,
		res.ResponseCode,
		res.CompletedAt,
	)
	if err != nil {
		return database.TranslateError(fmt.Errorf("failed to update reservation: %w", err))
	}
	return nil
}

func (r *postgresRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]string, error) {
	query := `
		SELECT vnpay_txn_ref
		FROM payment_reservations
		WHERE status = 'PENDING' AND expires_at < $1
		ORDER BY expires_at ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired reservations: %w", err)
	}
	refs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan expired reservations: %w", err)
	}
	return refs, nil
}

func (r *postgresRepository) InsertCallbackLog(ctx context.Context, log *model.CallbackLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	raw, err := json.Marshal(log.RawParams)
	if err != nil {
		return fmt.Errorf("failed to encode callback params: %w", err)
	}

	query := `
		INSERT INTO payment_callback_logs (
			id, source, txn_ref, raw_params, signature_valid, outcome, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err = r.pool.QueryRow(ctx, query,
		log.ID,
		log.Source,
		log.TxnRef,
		raw,
		log.SignatureValid,
		log.Outcome,
		log.ErrorMessage,
	).Scan(&log.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert callback log: %w", err)
	}
	return nil
}
