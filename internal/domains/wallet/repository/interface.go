package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"bookstore-fulfillment/internal/domains/wallet/model"
)

type Repository interface {
	// Read path, không lock
	GetBySellerID(ctx context.Context, sellerID uuid.UUID) (*model.Wallet, error)
	ListTransactions(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]model.WalletTransaction, int, error)
	ListTransactionsBetween(ctx context.Context, walletID uuid.UUID, filter model.TransactionFilter) ([]model.WalletTransaction, error)

	// Tx-scoped. Lock* return nil, nil when the row does not exist.
	LockByID(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) (*model.Wallet, error)
	LockBySellerID(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID) (*model.Wallet, error)
	CreateIfMissing(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID) error
	FindByReference(ctx context.Context, tx pgx.Tx, refType model.ReferenceType, refID uuid.UUID) (*model.WalletTransaction, error)
	InsertTransaction(ctx context.Context, tx pgx.Tx, t *model.WalletTransaction) error
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error
	InsertWithdrawal(ctx context.Context, tx pgx.Tx, w *model.WithdrawalRequest) error
}
