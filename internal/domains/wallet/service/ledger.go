package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"bookstore-fulfillment/internal/domains/wallet/model"
	"bookstore-fulfillment/internal/domains/wallet/repository"
	"bookstore-fulfillment/pkg/database"
	"bookstore-fulfillment/pkg/logger"
	"bookstore-fulfillment/pkg/metrics"
)

// Ledger is the only writer of wallets.balance and wallet_transactions.
type Ledger struct {
	repo    repository.Repository
	tx      database.TxRunner
	limits  WithdrawalLimits
	metrics *metrics.OutcomeMetrics
}

type WithdrawalLimits struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

func NewLedger(repo repository.Repository, tx database.TxRunner, limits WithdrawalLimits, m *metrics.OutcomeMetrics) *Ledger {
	return &Ledger{repo: repo, tx: tx, limits: limits, metrics: m}
}

// =====================================================================
// TX-SCOPED API
// =====================================================================

// CreditTx cộng tiền vào ví trong tx của caller.
// Nếu (reference_type, reference_id) đã có thì trả về row cũ, không ghi gì thêm.
func (l *Ledger) CreditTx(ctx context.Context, tx pgx.Tx, entry model.LedgerEntry) (*model.WalletTransaction, error) {
	return l.applyTx(ctx, tx, entry, model.TransactionCredit)
}

// DebitTx trừ tiền, từ chối trước khi ghi nếu số dư không đủ.
func (l *Ledger) DebitTx(ctx context.Context, tx pgx.Tx, entry model.LedgerEntry) (*model.WalletTransaction, error) {
	return l.applyTx(ctx, tx, entry, model.TransactionDebit)
}

func (l *Ledger) applyTx(ctx context.Context, tx pgx.Tx, entry model.LedgerEntry, typ model.TransactionType) (*model.WalletTransaction, error) {
	if !entry.Amount.IsPositive() {
		return nil, model.ErrInvalidAmount
	}
	if entry.ReferenceType == "" || entry.ReferenceID == uuid.Nil {
		return nil, model.ErrMissingReference
	}

	wallet, err := l.repo.LockByID(ctx, tx, entry.WalletID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, model.ErrWalletNotFound
	}

	// Idempotency check dưới wallet lock
	existing, err := l.repo.FindByReference(ctx, tx, entry.ReferenceType, entry.ReferenceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Info("ledger entry already applied", map[string]interface{}{
			"wallet_id":      wallet.ID,
			"reference_type": entry.ReferenceType,
			"reference_id":   entry.ReferenceID,
		})
		l.metrics.Inc("duplicate")
		return existing, nil
	}

	if !wallet.IsActive {
		return nil, model.ErrWalletInactive
	}

	signed := entry.Amount
	if typ == model.TransactionDebit {
		signed = entry.Amount.Neg()
		if wallet.Balance.Add(signed).IsNegative() {
			l.metrics.Inc("insufficient_balance")
			return nil, model.ErrInsufficientBalance.WithDetails(map[string]interface{}{
				"balance":   wallet.Balance.String(),
				"requested": entry.Amount.String(),
			})
		}
	}

	t := &model.WalletTransaction{
		ID:            uuid.New(),
		WalletID:      wallet.ID,
		Type:          typ,
		Amount:        signed,
		BalanceBefore: wallet.Balance,
		BalanceAfter:  wallet.Balance.Add(signed),
		ReferenceType: entry.ReferenceType,
		ReferenceID:   entry.ReferenceID,
		Description:   entry.Description,
		Status:        model.TransactionStatusCompleted,
	}
	if err := l.repo.InsertTransaction(ctx, tx, t); err != nil {
		return nil, err
	}
	if err := l.repo.UpdateBalance(ctx, tx, wallet.ID, t.BalanceAfter); err != nil {
		return nil, err
	}

	l.metrics.Inc(string(typ))
	return t, nil
}

// EnsureWalletTx trả về ví của seller (đã lock), tạo mới nếu chưa có.
func (l *Ledger) EnsureWalletTx(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID) (*model.Wallet, error) {
	wallet, err := l.repo.LockBySellerID(ctx, tx, sellerID)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		return wallet, nil
	}

	if err := l.repo.CreateIfMissing(ctx, tx, sellerID); err != nil {
		return nil, err
	}
	wallet, err = l.repo.LockBySellerID(ctx, tx, sellerID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, fmt.Errorf("wallet for seller %s missing after create", sellerID)
	}
	return wallet, nil
}

// CreditSellerTx is the settlement entry point used by payment and order flows.
func (l *Ledger) CreditSellerTx(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID, amount decimal.Decimal, refType model.ReferenceType, refID uuid.UUID, description string) (*model.WalletTransaction, error) {
	wallet, err := l.EnsureWalletTx(ctx, tx, sellerID)
	if err != nil {
		return nil, err
	}
	return l.CreditTx(ctx, tx, model.LedgerEntry{
		WalletID:      wallet.ID,
		Amount:        amount,
		ReferenceType: refType,
		ReferenceID:   refID,
		Description:   description,
	})
}

// DebitSellerTx reverses money previously credited to a seller.
func (l *Ledger) DebitSellerTx(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID, amount decimal.Decimal, refType model.ReferenceType, refID uuid.UUID, description string) (*model.WalletTransaction, error) {
	wallet, err := l.repo.LockBySellerID(ctx, tx, sellerID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, model.ErrWalletNotFound
	}
	return l.DebitTx(ctx, tx, model.LedgerEntry{
		WalletID:      wallet.ID,
		Amount:        amount,
		ReferenceType: refType,
		ReferenceID:   refID,
		Description:   description,
	})
}

// HasEntryTx reports whether a ledger row exists for the reference.
func (l *Ledger) HasEntryTx(ctx context.Context, tx pgx.Tx, refType model.ReferenceType, refID uuid.UUID) (bool, error) {
	t, err := l.repo.FindByReference(ctx, tx, refType, refID)
	if err != nil {
		return false, err
	}
	return t != nil, nil
}

// =====================================================================
// STANDALONE API (tự mở tx, retry 1 lần khi conflict)
// =====================================================================

func (l *Ledger) Credit(ctx context.Context, entry model.LedgerEntry) (*model.WalletTransaction, error) {
	return l.runStandalone(ctx, "wallet.credit", func(tx pgx.Tx) (*model.WalletTransaction, error) {
		return l.CreditTx(ctx, tx, entry)
	})
}

func (l *Ledger) Debit(ctx context.Context, entry model.LedgerEntry) (*model.WalletTransaction, error) {
	return l.runStandalone(ctx, "wallet.debit", func(tx pgx.Tx) (*model.WalletTransaction, error) {
		return l.DebitTx(ctx, tx, entry)
	})
}

func (l *Ledger) runStandalone(ctx context.Context, op string, fn func(tx pgx.Tx) (*model.WalletTransaction, error)) (*model.WalletTransaction, error) {
	var result *model.WalletTransaction
	err := database.RetryOnConflict(ctx, op, func(ctx context.Context) error {
		return l.tx.WithTx(ctx, func(tx pgx.Tx) error {
			t, err := fn(tx)
			if err != nil {
				return err
			}
			result = t
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
