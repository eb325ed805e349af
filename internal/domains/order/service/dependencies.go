package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	inventoryModel "bookstore-fulfillment/internal/domains/inventory/model"
	walletModel "bookstore-fulfillment/internal/domains/wallet/model"
	"bookstore-fulfillment/internal/infrastructure/outbox"
)

// Restocker is implemented by the inventory StockLedger.
type Restocker interface {
	RestockTx(ctx context.Context, tx pgx.Tx, lines []inventoryModel.StockLine, referenceID uuid.UUID, reason inventoryModel.MovementReason) error
}

// SellerLedger is implemented by the wallet Ledger.
type SellerLedger interface {
	CreditSellerTx(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID, amount decimal.Decimal, refType walletModel.ReferenceType, refID uuid.UUID, description string) (*walletModel.WalletTransaction, error)
	DebitSellerTx(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID, amount decimal.Decimal, refType walletModel.ReferenceType, refID uuid.UUID, description string) (*walletModel.WalletTransaction, error)
	HasEntryTx(ctx context.Context, tx pgx.Tx, refType walletModel.ReferenceType, refID uuid.UUID) (bool, error)
}

// EventWriter is implemented by outbox.Writer.
type EventWriter interface {
	Emit(ctx context.Context, tx pgx.Tx, eventType outbox.EventType, aggType outbox.AggregateType, aggID uuid.UUID, data interface{}) error
}
