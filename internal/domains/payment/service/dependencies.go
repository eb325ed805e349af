package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	inventoryModel "bookstore-fulfillment/internal/domains/inventory/model"
	orderModel "bookstore-fulfillment/internal/domains/order/model"
	walletModel "bookstore-fulfillment/internal/domains/wallet/model"
	"bookstore-fulfillment/internal/infrastructure/outbox"
)

// OrderSettler is implemented by the order state machine.
type OrderSettler interface {
	ConfirmPaidTx(ctx context.Context, tx pgx.Tx, groupID uuid.UUID, paidAt time.Time) ([]orderModel.Order, error)
	CancelGroupTx(ctx context.Context, tx pgx.Tx, groupID uuid.UUID, reason inventoryModel.MovementReason, note string) error
}

// SellerCreditor is implemented by the wallet Ledger.
type SellerCreditor interface {
	CreditSellerTx(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID, amount decimal.Decimal, refType walletModel.ReferenceType, refID uuid.UUID, description string) (*walletModel.WalletTransaction, error)
}

type EventWriter interface {
	Emit(ctx context.Context, tx pgx.Tx, eventType outbox.EventType, aggType outbox.AggregateType, aggID uuid.UUID, data interface{}) error
}
