package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"bookstore-fulfillment/internal/domains/wallet/model"
	"bookstore-fulfillment/pkg/database"
)

const walletColumns = `id, seller_id, balance, is_active, created_at, updated_at`

const txColumns = `
	id, wallet_id, type, amount, balance_before, balance_after,
	reference_type, reference_id, description, status, created_at
`

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func scanWallet(row pgx.Row) (*model.Wallet, error) {
	var w model.Wallet
	err := row.Scan(&w.ID, &w.SellerID, &w.Balance, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func scanTransaction(row pgx.Row) (*model.WalletTransaction, error) {
	var t model.WalletTransaction
	err := row.Scan(
		&t.ID,
		&t.WalletID,
		&t.Type,
		&t.Amount,
		&t.BalanceBefore,
		&t.BalanceAfter,
		&t.ReferenceType,
		&t.ReferenceID,
		&t.Description,
		&t.Status,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *postgresRepository) GetBySellerID(ctx context.Context, sellerID uuid.UUID) (*model.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE seller_id = $1`
	w, err := scanWallet(r.pool.QueryRow(ctx, query, sellerID))
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

func (r *postgresRepository) ListTransactions(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]model.WalletTransaction, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM wallet_transactions WHERE wallet_id = $1`, walletID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count wallet transactions: %w", err)
	}

	query := `
		SELECT ` + txColumns + `
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, walletID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list wallet transactions: %w", err)
	}
	defer rows.Close()

	txs, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func (r *postgresRepository) ListTransactionsBetween(ctx context.Context, walletID uuid.UUID, filter model.TransactionFilter) ([]model.WalletTransaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM wallet_transactions
		WHERE wallet_id = $1
		  AND created_at >= $2
		  AND created_at < $3
		ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query, walletID, filter.From, filter.To)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]model.WalletTransaction, error) {
	var txs []model.WalletTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet transactions: %w", err)
	}
	return txs, nil
}

func (r *postgresRepository) LockByID(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) (*model.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 FOR UPDATE`
	w, err := scanWallet(tx.QueryRow(ctx, query, walletID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	return w, nil
}

func (r *postgresRepository) LockBySellerID(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID) (*model.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE seller_id = $1 FOR UPDATE`
	w, err := scanWallet(tx.QueryRow(ctx, query, sellerID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	return w, nil
}

// CreateIfMissing không lỗi khi ví đã tồn tại (ON CONFLICT DO NOTHING)
func (r *postgresRepository) CreateIfMissing(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID) error {
	query := `
		INSERT INTO wallets (id, seller_id, balance, is_active, created_at, updated_at)
		VALUES ($1, $2, 0, TRUE, NOW(), NOW())
		ON CONFLICT (seller_id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, query, uuid.New(), sellerID); err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (r *postgresRepository) FindByReference(ctx context.Context, tx pgx.Tx, refType model.ReferenceType, refID uuid.UUID) (*model.WalletTransaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM wallet_transactions
		WHERE reference_type = $1 AND reference_id = $2
	`
	t, err := scanTransaction(tx.QueryRow(ctx, query, refType, refID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find wallet transaction: %w", err)
	}
	return t, nil
}

// InsertTransaction: vi phạm uq_wallet_tx_reference được TxManager map sang Conflict,
// lần retry sẽ thấy row đã tồn tại và trả về nó
func (r *postgresRepository) InsertTransaction(ctx context.Context, tx pgx.Tx, t *model.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (` + txColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING created_at
	`
	err := tx.QueryRow(ctx, query,
		t.ID,
		t.WalletID,
		t.Type,
		t.Amount,
		t.BalanceBefore,
		t.BalanceAfter,
		t.ReferenceType,
		t.ReferenceID,
		t.Description,
		t.Status,
	).Scan(&t.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "uq_wallet_tx_reference") {
			return database.ErrConflict.Wrap(err)
		}
		return fmt.Errorf("failed to insert wallet transaction: %w", err)
	}
	return nil
}

func (r *postgresRepository) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	tag, err := tx.Exec(ctx,
		`UPDATE wallets SET balance = $2, updated_at = NOW() WHERE id = $1`,
		walletID, balance,
	)
	if err != nil {
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrWalletNotFound
	}
	return nil
}

func (r *postgresRepository) InsertWithdrawal(ctx context.Context, tx pgx.Tx, w *model.WithdrawalRequest) error {
	query := `
		INSERT INTO withdrawal_requests (
			id, wallet_id, seller_id, amount, bank_name, account_number,
			account_holder, status, transaction_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`
	err := tx.QueryRow(ctx, query,
		w.ID,
		w.WalletID,
		w.SellerID,
		w.Amount,
		w.BankName,
		w.AccountNumber,
		w.AccountHolder,
		w.Status,
		w.TransactionID,
	).Scan(&w.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert withdrawal request: %w", err)
	}
	return nil
}
