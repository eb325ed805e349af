package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationCompleted ReservationStatus = "COMPLETED"
	ReservationExpired   ReservationStatus = "EXPIRED"
	ReservationFailed    ReservationStatus = "FAILED"
)

// =====================================================
// PAYMENT RESERVATION
// =====================================================

// Reservation giữ chỗ thanh toán VNPay cho một group order.
// vnp_TxnRef là unique toàn hệ thống.
type Reservation struct {
	ID           uuid.UUID         `json:"id"`
	GroupOrderID uuid.UUID         `json:"group_order_id"`
	UserID       uuid.UUID         `json:"user_id"`
	TxnRef       string            `json:"txn_ref"`
	Amount       decimal.Decimal   `json:"amount"`
	Status       ReservationStatus `json:"status"`
	ExpiresAt    time.Time         `json:"expires_at"`

	// Gateway fields, chỉ có sau khi nhận callback
	GatewayTransactionNo *string    `json:"gateway_transaction_no,omitempty"`
	BankCode             *string    `json:"bank_code,omitempty"`
	ResponseCode         *string    `json:"response_code,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Reservation) IsTerminal() bool {
	return r.Status != ReservationPending
}

// IsPastDue is true strictly after expires_at.
func (r *Reservation) IsPastDue(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// NewTxnRef sinh vnp_TxnRef: 32 ký tự hex (VNPay chỉ nhận chữ và số).
func NewTxnRef() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
