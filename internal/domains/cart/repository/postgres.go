package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookstore-fulfillment/internal/domains/cart/model"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) GetSelectedItems(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]model.SelectedItem, error) {
	query := `
		SELECT
			ci.id,
			ci.book_id,
			ci.shop_id,
			ci.seller_id,
			b.title,
			b.price,
			ci.quantity,
			b.stock_quantity,
			b.is_active
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		JOIN books b ON b.id = ci.book_id
		WHERE c.user_id = $1
		  AND ci.id = ANY($2)
		ORDER BY ci.shop_id, ci.book_id
	`

	rows, err := r.pool.Query(ctx, query, userID, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query selected items: %w", err)
	}
	defer rows.Close()

	var items []model.SelectedItem
	for rows.Next() {
		var it model.SelectedItem
		if err := rows.Scan(
			&it.ItemID,
			&it.BookID,
			&it.ShopID,
			&it.SellerID,
			&it.Title,
			&it.UnitPrice,
			&it.Quantity,
			&it.Stock,
			&it.IsActive,
		); err != nil {
			return nil, fmt.Errorf("failed to scan selected item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating selected items: %w", err)
	}

	return items, nil
}

func (r *postgresRepository) DeleteItemsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
	query := `
		DELETE FROM cart_items ci
		USING carts c
		WHERE c.id = ci.cart_id
		  AND c.user_id = $1
		  AND ci.id = ANY($2)
	`

	tag, err := tx.Exec(ctx, query, userID, itemIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cart items: %w", err)
	}
	return tag.RowsAffected(), nil
}
