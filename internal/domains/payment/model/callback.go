package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CallbackSource là nơi outcome đến: browser return, server IPN hoặc sweep job.
type CallbackSource string

const (
	SourceReturn CallbackSource = "RETURN"
	SourceIPN    CallbackSource = "IPN"
	SourceSweep  CallbackSource = "SWEEP"
)

type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "SUCCESS"
	OutcomeFailure OutcomeKind = "FAILURE"
	OutcomeExpiry  OutcomeKind = "EXPIRY"
)

// Outcome is what reconciliation applies to a reservation.
type Outcome struct {
	Kind                 OutcomeKind
	Amount               decimal.Decimal
	GatewayTransactionNo string
	BankCode             string
	ResponseCode         string
	PayDate              time.Time
	// At là thời điểm sweep quan sát, chỉ dùng cho expiry
	At time.Time
}

// ReconcileResult is returned by every reconciliation entry point.
type ReconcileResult struct {
	TxnRef       string            `json:"txn_ref"`
	GroupOrderID uuid.UUID         `json:"group_order_id"`
	Status       ReservationStatus `json:"status"`
	Duplicate    bool              `json:"duplicate"`
	// LateSuccess: VNPay báo thành công sau khi reservation đã EXPIRED/FAILED,
	// cần đối soát thủ công để hoàn tiền.
	LateSuccess bool `json:"late_success,omitempty"`
	// Unsettled: phần tiền đã thu nhưng không đơn nào nhận (đơn đã hủy/hoàn)
	Unsettled *decimal.Decimal `json:"unsettled_amount,omitempty"`
}

// =====================================================
// CALLBACK LOG
// =====================================================

// CallbackLog lưu mọi return/IPN nhận được, kể cả callback bị từ chối.
type CallbackLog struct {
	ID             uuid.UUID         `json:"id"`
	Source         CallbackSource    `json:"source"`
	TxnRef         string            `json:"txn_ref"`
	RawParams      map[string]string `json:"raw_params"`
	SignatureValid bool              `json:"signature_valid"`
	Outcome        string            `json:"outcome"`
	ErrorMessage   *string           `json:"error_message,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// =====================================================
// IPN RESPONSE (VNPay contract)
// =====================================================

const (
	RspConfirmSuccess   = "00"
	RspOrderNotFound    = "01"
	RspAlreadyConfirmed = "02"
	RspInvalidAmount    = "04"
	RspInvalidSignature = "97"
	RspUnknownError     = "99"
)

type IPNResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

func (l *CallbackLog) SetError(err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	l.ErrorMessage = &msg
}
