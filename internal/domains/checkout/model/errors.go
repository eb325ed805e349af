package model

import "bookstore-fulfillment/pkg/apperror"

var (
	ErrInvalidCheckout = apperror.Validation("CHECKOUT_INVALID_REQUEST", "Dữ liệu checkout không hợp lệ")
	ErrZeroTotalOnline = apperror.Validation("CHECKOUT_ZERO_TOTAL", "Đơn 0đ không thể thanh toán qua VNPay, vui lòng chọn COD")
)
