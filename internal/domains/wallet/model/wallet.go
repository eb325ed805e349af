package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet: mỗi seller có đúng một ví (UNIQUE seller_id)
type Wallet struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	SellerID  uuid.UUID       `json:"seller_id" db:"seller_id"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	IsActive  bool            `json:"is_active" db:"is_active"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

type TransactionType string

const (
	TransactionCredit TransactionType = "CREDIT"
	TransactionDebit  TransactionType = "DEBIT"
)

// ReferenceType + ReferenceID là khóa idempotency của ledger
type ReferenceType string

const (
	RefOrderSettlement ReferenceType = "ORDER_SETTLEMENT"
	RefOrderReversal   ReferenceType = "ORDER_REVERSAL"
	RefOrderRefund     ReferenceType = "ORDER_REFUND"
	RefWithdrawal      ReferenceType = "WITHDRAWAL"
)

const TransactionStatusCompleted = "COMPLETED"

// WalletTransaction is append-only. Amount is signed: positive for credits,
// negative for debits, so BalanceAfter = BalanceBefore + Amount.
type WalletTransaction struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	WalletID      uuid.UUID       `json:"wallet_id" db:"wallet_id"`
	Type          TransactionType `json:"type" db:"type"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before" db:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after" db:"balance_after"`
	ReferenceType ReferenceType   `json:"reference_type" db:"reference_type"`
	ReferenceID   uuid.UUID       `json:"reference_id" db:"reference_id"`
	Description   string          `json:"description" db:"description"`
	Status        string          `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// LedgerEntry describes one credit or debit. Amount is always positive.
type LedgerEntry struct {
	WalletID      uuid.UUID
	Amount        decimal.Decimal
	ReferenceType ReferenceType
	ReferenceID   uuid.UUID
	Description   string
}

type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "PENDING"
	WithdrawalCompleted WithdrawalStatus = "COMPLETED"
	WithdrawalRejected  WithdrawalStatus = "REJECTED"
)

type WithdrawalRequest struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	WalletID      uuid.UUID        `json:"wallet_id" db:"wallet_id"`
	SellerID      uuid.UUID        `json:"seller_id" db:"seller_id"`
	Amount        decimal.Decimal  `json:"amount" db:"amount"`
	BankName      string           `json:"bank_name" db:"bank_name"`
	AccountNumber string           `json:"account_number" db:"account_number"`
	AccountHolder string           `json:"account_holder" db:"account_holder"`
	Status        WithdrawalStatus `json:"status" db:"status"`
	TransactionID *uuid.UUID       `json:"transaction_id,omitempty" db:"transaction_id"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}
