package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"bookstore-fulfillment/internal/domains/cart/model"
)

type Repository interface {
	// GetSelectedItems returns the buyer's items among itemIDs joined with books.
	// Ids that are not in the buyer's cart are simply absent from the result.
	GetSelectedItems(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]model.SelectedItem, error)

	// DeleteItemsTx removes consumed items once the orders are written.
	DeleteItemsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, itemIDs []uuid.UUID) (int64, error)
}
