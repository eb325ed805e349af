package model

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"
)

// CreateWithdrawalRequest is the body of POST /wallet/withdrawals.
// Min/max bounds come from config and are checked by the service.
type CreateWithdrawalRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	BankName      string          `json:"bank_name"`
	AccountNumber string          `json:"account_number"`
	AccountHolder string          `json:"account_holder"`
}

func (r *CreateWithdrawalRequest) Normalize() {
	r.BankName = strings.TrimSpace(r.BankName)
	r.AccountNumber = strings.TrimSpace(r.AccountNumber)
	r.AccountHolder = strings.ToUpper(strings.TrimSpace(r.AccountHolder))
}

func (r CreateWithdrawalRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Amount, validation.By(positiveDecimal)),
		validation.Field(&r.BankName, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.AccountNumber, validation.Required, validation.Length(6, 30), is.Digit),
		validation.Field(&r.AccountHolder, validation.Required, validation.Length(2, 100)),
	)
}

func positiveDecimal(value interface{}) error {
	d, ok := value.(decimal.Decimal)
	if !ok || !d.IsPositive() {
		return validation.NewError("validation_positive", "must be greater than 0")
	}
	return nil
}

// TransactionFilter giới hạn khoảng thời gian khi export sao kê
type TransactionFilter struct {
	From time.Time
	To   time.Time
}

type WalletResponse struct {
	Wallet        *Wallet         `json:"wallet"`
	MinWithdrawal decimal.Decimal `json:"min_withdrawal"`
	MaxWithdrawal decimal.Decimal `json:"max_withdrawal"`
}
