package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookstore-fulfillment/internal/domains/order/model"
)

const orderColumns = `
	id, group_order_id, order_number, user_id, shop_id, seller_id,
	status, payment_method, payment_status,
	subtotal, shipping_fee, discount, total,
	cancellation_reason, paid_at, delivered_at, cancelled_at,
	created_at, updated_at
`

const groupColumns = `
	id, group_number, user_id, subtotal, shipping_fee, discount, total,
	payment_method, payment_status, status, promotion_id, promotion_code,
	shipping_address, created_at, updated_at
`

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,
		&o.GroupOrderID,
		&o.OrderNumber,
		&o.UserID,
		&o.ShopID,
		&o.SellerID,
		&o.Status,
		&o.PaymentMethod,
		&o.PaymentStatus,
		&o.Subtotal,
		&o.ShippingFee,
		&o.Discount,
		&o.Total,
		&o.CancellationReason,
		&o.PaidAt,
		&o.DeliveredAt,
		&o.CancelledAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepository) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

func (r *postgresRepository) GetItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, book_id, title, unit_price, quantity, line_total
		FROM order_items
		WHERE order_id = $1
		ORDER BY book_id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

func (r *postgresRepository) GetItemsTx(ctx context.Context, tx pgx.Tx, orderIDs []uuid.UUID) ([]model.OrderItem, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, order_id, book_id, title, unit_price, quantity, line_total
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, book_id
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

func collectItems(rows pgx.Rows) ([]model.OrderItem, error) {
	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.BookID, &it.Title, &it.UnitPrice, &it.Quantity, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}
	return items, nil
}

func (r *postgresRepository) GetHistory(ctx context.Context, orderID uuid.UUID) ([]model.StatusHistory, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, from_status, to_status, changed_by, note, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY created_at, id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order history: %w", err)
	}
	defer rows.Close()

	var history []model.StatusHistory
	for rows.Next() {
		var h model.StatusHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.FromStatus, &h.ToStatus, &h.ChangedBy, &h.Note, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order history: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (r *postgresRepository) CreateGroup(ctx context.Context, tx pgx.Tx, g *model.GroupOrder) error {
	query := `
		INSERT INTO group_orders (` + groupColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := tx.QueryRow(ctx, query,
		g.ID,
		g.GroupNumber,
		g.UserID,
		g.Subtotal,
		g.ShippingFee,
		g.Discount,
		g.Total,
		g.PaymentMethod,
		g.PaymentStatus,
		g.Status,
		g.PromotionID,
		g.PromotionCode,
		g.ShippingAddress,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create group order: %w", err)
	}
	return nil
}

func (r *postgresRepository) CreateOrder(ctx context.Context, tx pgx.Tx, o *model.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := tx.QueryRow(ctx, query,
		o.ID,
		o.GroupOrderID,
		o.OrderNumber,
		o.UserID,
		o.ShopID,
		o.SellerID,
		o.Status,
		o.PaymentMethod,
		o.PaymentStatus,
		o.Subtotal,
		o.ShippingFee,
		o.Discount,
		o.Total,
		o.CancellationReason,
		o.PaidAt,
		o.DeliveredAt,
		o.CancelledAt,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// CreateItems gửi toàn bộ item trong một batch
func (r *postgresRepository) CreateItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
			INSERT INTO order_items (id, order_id, book_id, title, unit_price, quantity, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, it.ID, it.OrderID, it.BookID, it.Title, it.UnitPrice, it.Quantity, it.LineTotal)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for range items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return nil
}

func (r *postgresRepository) LockGroup(ctx context.Context, tx pgx.Tx, groupID uuid.UUID) (*model.GroupOrder, error) {
	query := `SELECT ` + groupColumns + ` FROM group_orders WHERE id = $1 FOR UPDATE`

	var g model.GroupOrder
	err := tx.QueryRow(ctx, query, groupID).Scan(
		&g.ID,
		&g.GroupNumber,
		&g.UserID,
		&g.Subtotal,
		&g.ShippingFee,
		&g.Discount,
		&g.Total,
		&g.PaymentMethod,
		&g.PaymentStatus,
		&g.Status,
		&g.PromotionID,
		&g.PromotionCode,
		&g.ShippingAddress,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock group order: %w", err)
	}
	return &g, nil
}

func (r *postgresRepository) LockOrdersByGroup(ctx context.Context, tx pgx.Tx, groupID uuid.UUID) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE group_order_id = $1 ORDER BY id FOR UPDATE`
	rows, err := tx.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock group orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *postgresRepository) LockOrder(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	o, err := scanOrder(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	return o, nil
}

func (r *postgresRepository) UpdateOrder(ctx context.Context, tx pgx.Tx, o *model.Order) error {
	tag, err := tx.Exec(ctx, `
		UPDATE orders SET
			status = $2,
			payment_status = $3,
			cancellation_reason = $4,
			paid_at = $5,
			delivered_at = $6,
			cancelled_at = $7,
			updated_at = NOW()
		WHERE id = $1
	`, o.ID, o.Status, o.PaymentStatus, o.CancellationReason, o.PaidAt, o.DeliveredAt, o.CancelledAt)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

func (r *postgresRepository) UpdateGroupStatus(ctx context.Context, tx pgx.Tx, groupID uuid.UUID, status model.GroupStatus, payment model.PaymentStatus) error {
	_, err := tx.Exec(ctx, `
		UPDATE group_orders
		SET status = $2, payment_status = $3, updated_at = NOW()
		WHERE id = $1
	`, groupID, status, payment)
	if err != nil {
		return fmt.Errorf("failed to update group order: %w", err)
	}
	return nil
}

func (r *postgresRepository) InsertHistory(ctx context.Context, tx pgx.Tx, h *model.StatusHistory) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO order_status_history (id, order_id, from_status, to_status, changed_by, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`, h.ID, h.OrderID, h.FromStatus, h.ToStatus, h.ChangedBy, h.Note).Scan(&h.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order history: %w", err)
	}
	return nil
}
