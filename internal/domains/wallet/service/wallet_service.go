package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/xuri/excelize/v2"

	"bookstore-fulfillment/internal/domains/wallet/model"
	"bookstore-fulfillment/pkg/database"
	"bookstore-fulfillment/pkg/logger"
)

// Withdraw kiểm tra hạn mức rồi debit (WITHDRAWAL, request id) và lưu request trong cùng tx.
func (l *Ledger) Withdraw(ctx context.Context, sellerID uuid.UUID, req model.CreateWithdrawalRequest) (*model.WithdrawalRequest, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, model.ErrInvalidWithdrawal.WithDetails(err)
	}
	if req.Amount.LessThan(l.limits.Min) || req.Amount.GreaterThan(l.limits.Max) {
		return nil, model.ErrWithdrawalOutOfRange.WithDetails(map[string]interface{}{
			"min": l.limits.Min.String(),
			"max": l.limits.Max.String(),
		})
	}

	var result *model.WithdrawalRequest
	err := database.RetryOnConflict(ctx, "wallet.withdraw", func(ctx context.Context) error {
		return l.tx.WithTx(ctx, func(tx pgx.Tx) error {
			wallet, err := l.repo.LockBySellerID(ctx, tx, sellerID)
			if err != nil {
				return err
			}
			if wallet == nil {
				return model.ErrWalletNotFound
			}

			w := &model.WithdrawalRequest{
				ID:            uuid.New(),
				WalletID:      wallet.ID,
				SellerID:      sellerID,
				Amount:        req.Amount,
				BankName:      req.BankName,
				AccountNumber: req.AccountNumber,
				AccountHolder: req.AccountHolder,
				Status:        model.WithdrawalPending,
			}

			t, err := l.DebitTx(ctx, tx, model.LedgerEntry{
				WalletID:      wallet.ID,
				Amount:        req.Amount,
				ReferenceType: model.RefWithdrawal,
				ReferenceID:   w.ID,
				Description:   fmt.Sprintf("Rút tiền về %s - %s", req.BankName, req.AccountNumber),
			})
			if err != nil {
				return err
			}
			w.TransactionID = &t.ID

			if err := l.repo.InsertWithdrawal(ctx, tx, w); err != nil {
				return err
			}
			result = w
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("withdrawal requested", map[string]interface{}{
		"seller_id":     sellerID,
		"withdrawal_id": result.ID,
		"amount":        result.Amount.String(),
	})
	return result, nil
}

func (l *Ledger) GetMyWallet(ctx context.Context, sellerID uuid.UUID) (*model.WalletResponse, error) {
	wallet, err := l.repo.GetBySellerID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, model.ErrWalletNotFound
	}
	return &model.WalletResponse{
		Wallet:        wallet,
		MinWithdrawal: l.limits.Min,
		MaxWithdrawal: l.limits.Max,
	}, nil
}

func (l *Ledger) ListTransactions(ctx context.Context, sellerID uuid.UUID, page, limit int) ([]model.WalletTransaction, int, error) {
	wallet, err := l.repo.GetBySellerID(ctx, sellerID)
	if err != nil {
		return nil, 0, err
	}
	if wallet == nil {
		return nil, 0, model.ErrWalletNotFound
	}
	return l.repo.ListTransactions(ctx, wallet.ID, limit, (page-1)*limit)
}

// ExportTransactions builds the seller statement for [from, to) as an xlsx file.
func (l *Ledger) ExportTransactions(ctx context.Context, sellerID uuid.UUID, filter model.TransactionFilter) (*excelize.File, error) {
	wallet, err := l.repo.GetBySellerID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, model.ErrWalletNotFound
	}
	if filter.To.IsZero() {
		filter.To = time.Now()
	}
	if filter.From.IsZero() {
		filter.From = filter.To.AddDate(0, -1, 0)
	}

	txs, err := l.repo.ListTransactionsBetween(ctx, wallet.ID, filter)
	if err != nil {
		return nil, err
	}

	f, err := buildStatement(wallet, txs)
	if err != nil {
		return nil, fmt.Errorf("failed to build statement: %w", err)
	}
	return f, nil
}

const statementSheet = "Statement"

var statementHeaders = []string{
	"Thời gian",
	"Loại",
	"Số tiền",
	"Số dư trước",
	"Số dư sau",
	"Tham chiếu",
	"Mã tham chiếu",
	"Mô tả",
}

func buildStatement(wallet *model.Wallet, txs []model.WalletTransaction) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", statementSheet); err != nil {
		return nil, err
	}

	for col, header := range statementHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(statementSheet, cell, header)
	}

	// header in đậm
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(statementHeaders), 1)
		f.SetCellStyle(statementSheet, "A1", last, style)
	}

	for i, t := range txs {
		row := i + 2
		values := []interface{}{
			t.CreatedAt.Format("2006-01-02 15:04:05"),
			string(t.Type),
			t.Amount.InexactFloat64(),
			t.BalanceBefore.InexactFloat64(),
			t.BalanceAfter.InexactFloat64(),
			string(t.ReferenceType),
			t.ReferenceID.String(),
			t.Description,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(statementSheet, cell, v)
		}
	}

	summaryRow := len(txs) + 3
	f.SetCellValue(statementSheet, fmt.Sprintf("A%d", summaryRow), "Số dư hiện tại")
	f.SetCellValue(statementSheet, fmt.Sprintf("C%d", summaryRow), wallet.Balance.InexactFloat64())

	return f, nil
}
