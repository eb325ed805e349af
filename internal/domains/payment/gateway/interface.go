package gateway

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =====================================================
// GATEWAY INTERFACES
// =====================================================

// VNPayGateway builds signed redirect URLs and verifies inbound callbacks.
type VNPayGateway interface {
	// CreatePaymentURL generates VNPay payment URL
	CreatePaymentURL(ctx context.Context, req PaymentRequest) (string, error)

	// VerifyCallback verifies return/IPN params and parses them
	VerifyCallback(params map[string]string) (*CallbackResult, error)
}

// PaymentRequest request to create VNPay payment
type PaymentRequest struct {
	TxnRef    string          // payment_reservations.vnpay_txn_ref
	Amount    decimal.Decimal // group total, VND
	OrderInfo string          // Description
	ClientIP  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// CallbackResult là dữ liệu đã verify từ return/IPN
type CallbackResult struct {
	TxnRef            string
	Amount            decimal.Decimal // đã chia 100
	ResponseCode      string
	TransactionStatus string
	TransactionNo     string
	BankCode          string
	PayDate           time.Time // zero nếu VNPay không gửi
}

// Success: cả vnp_ResponseCode và vnp_TransactionStatus đều "00"
func (r *CallbackResult) Success() bool {
	return r.ResponseCode == "00" && r.TransactionStatus == "00"
}
