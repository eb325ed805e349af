package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"bookstore-fulfillment/internal/domains/payment/model"
)

type Repository interface {
	// Tx-scoped
	CreateReservation(ctx context.Context, tx pgx.Tx, r *model.Reservation) error
	// LockByTxnRef returns nil, nil when the reservation does not exist.
	LockByTxnRef(ctx context.Context, tx pgx.Tx, txnRef string) (*model.Reservation, error)
	UpdateReservation(ctx context.Context, tx pgx.Tx, r *model.Reservation) error

	// Sweep: PENDING có expires_at < now, cũ nhất trước
	ListExpired(ctx context.Context, now time.Time, limit int) ([]string, error)

	// Callback log ghi ngoài transaction reconciliation
	InsertCallbackLog(ctx context.Context, log *model.CallbackLog) error
}
