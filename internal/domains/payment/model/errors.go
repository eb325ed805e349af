package model

import "bookstore-fulfillment/pkg/apperror"

var (
	ErrReservationNotFound = apperror.NotFound("PAYMENT_RESERVATION_NOT_FOUND", "Không tìm thấy giao dịch thanh toán")
	ErrInvalidSignature    = apperror.ExternalGateway("PAYMENT_INVALID_SIGNATURE", "Chữ ký VNPay không hợp lệ")
	ErrMissingParams       = apperror.ExternalGateway("PAYMENT_MISSING_PARAMS", "Thiếu tham số bắt buộc từ VNPay")
	ErrInvalidGatewayData  = apperror.ExternalGateway("PAYMENT_INVALID_GATEWAY_DATA", "Dữ liệu VNPay không hợp lệ")
	ErrAmountMismatch      = apperror.ExternalGateway("PAYMENT_AMOUNT_MISMATCH", "Số tiền không khớp với giao dịch")
	ErrNotExpired          = apperror.State("PAYMENT_NOT_EXPIRED", "Giao dịch chưa hết hạn")
	ErrInvalidRequest      = apperror.Validation("PAYMENT_INVALID_REQUEST", "Yêu cầu thanh toán không hợp lệ")
)
