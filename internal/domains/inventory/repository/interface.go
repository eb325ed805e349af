package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"bookstore-fulfillment/internal/domains/inventory/model"
)

type Repository interface {
	// GetStocks reads without locking (pre-check outside the tx).
	GetStocks(ctx context.Context, bookIDs []uuid.UUID) (map[uuid.UUID]*model.BookStock, error)
	// LockBook takes the row lock (SELECT ... FOR UPDATE). Returns nil, nil if missing.
	LockBook(ctx context.Context, tx pgx.Tx, bookID uuid.UUID) (*model.BookStock, error)
	// AdjustStock applies delta and returns the new quantity.
	AdjustStock(ctx context.Context, tx pgx.Tx, bookID uuid.UUID, delta int) (int, error)
	InsertMovement(ctx context.Context, tx pgx.Tx, m *model.Movement) error
}
