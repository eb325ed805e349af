package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"bookstore-fulfillment/internal/domains/order/model"
)

type Repository interface {
	// =====================================================
	// READ (không lock), nil, nil khi không tồn tại
	// =====================================================
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error)
	GetHistory(ctx context.Context, orderID uuid.UUID) ([]model.StatusHistory, error)

	// =====================================================
	// TX-SCOPED
	// =====================================================
	CreateGroup(ctx context.Context, tx pgx.Tx, g *model.GroupOrder) error
	CreateOrder(ctx context.Context, tx pgx.Tx, o *model.Order) error
	CreateItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	LockGroup(ctx context.Context, tx pgx.Tx, groupID uuid.UUID) (*model.GroupOrder, error)
	// LockOrdersByGroup locks every order of the group ordered by id.
	LockOrdersByGroup(ctx context.Context, tx pgx.Tx, groupID uuid.UUID) ([]model.Order, error)
	LockOrder(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)
	GetItemsTx(ctx context.Context, tx pgx.Tx, orderIDs []uuid.UUID) ([]model.OrderItem, error)

	UpdateOrder(ctx context.Context, tx pgx.Tx, o *model.Order) error
	UpdateGroupStatus(ctx context.Context, tx pgx.Tx, groupID uuid.UUID, status model.GroupStatus, payment model.PaymentStatus) error
	InsertHistory(ctx context.Context, tx pgx.Tx, h *model.StatusHistory) error
}
