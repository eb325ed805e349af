package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookstore-fulfillment/internal/domains/inventory/model"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const selectBookStock = `
	SELECT id, shop_id, title, price, stock_quantity, is_active
	FROM books`

func scanBookStock(row pgx.Row) (*model.BookStock, error) {
	var b model.BookStock
	if err := row.Scan(&b.BookID, &b.ShopID, &b.Title, &b.Price, &b.StockQuantity, &b.IsActive); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *postgresRepository) GetStocks(ctx context.Context, bookIDs []uuid.UUID) (map[uuid.UUID]*model.BookStock, error) {
	rows, err := r.pool.Query(ctx, selectBookStock+` WHERE id = ANY($1)`, bookIDs)
	if err != nil {
		return nil, fmt.Errorf("query book stock: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*model.BookStock, len(bookIDs))
	for rows.Next() {
		b, err := scanBookStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book stock: %w", err)
		}
		out[b.BookID] = b
	}
	return out, rows.Err()
}

func (r *postgresRepository) LockBook(ctx context.Context, tx pgx.Tx, bookID uuid.UUID) (*model.BookStock, error) {
	b, err := scanBookStock(tx.QueryRow(ctx, selectBookStock+` WHERE id = $1 FOR UPDATE`, bookID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock book %s: %w", bookID, err)
	}
	return b, nil
}

func (r *postgresRepository) AdjustStock(ctx context.Context, tx pgx.Tx, bookID uuid.UUID, delta int) (int, error) {
	var after int
	// CHECK (stock_quantity >= 0) is the last line of defence
	err := tx.QueryRow(ctx, `
		UPDATE books
		SET stock_quantity = stock_quantity + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING stock_quantity`,
		bookID, delta,
	).Scan(&after)
	if err != nil {
		return 0, fmt.Errorf("adjust stock %s by %d: %w", bookID, delta, err)
	}
	return after, nil
}

func (r *postgresRepository) InsertMovement(ctx context.Context, tx pgx.Tx, m *model.Movement) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO stock_movements (id, book_id, delta, stock_after, reason, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		m.ID, m.BookID, m.Delta, m.StockAfter, m.Reason, m.ReferenceID,
	)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}
