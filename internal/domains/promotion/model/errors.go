package model

import "bookstore-fulfillment/pkg/apperror"

// Validation failures, in the order they are checked.
var (
	ErrPromotionNotFound       = apperror.Validation("PROMO_NOT_FOUND", "Mã giảm giá không tồn tại")
	ErrPromotionInactive       = apperror.Validation("PROMO_INACTIVE", "Mã giảm giá đã bị vô hiệu hóa")
	ErrPromotionNotStarted     = apperror.Validation("PROMO_NOT_STARTED", "Mã giảm giá chưa đến thời gian áp dụng")
	ErrPromotionExpired        = apperror.Validation("PROMO_EXPIRED", "Mã giảm giá đã hết hạn")
	ErrPromotionUserLimit      = apperror.Validation("PROMO_USER_LIMIT_EXCEEDED", "Bạn đã dùng hết lượt cho mã giảm giá này")
	ErrPromotionUsageExhausted = apperror.Validation("PROMO_USAGE_LIMIT_EXCEEDED", "Mã giảm giá đã hết lượt sử dụng")
	ErrPromotionMinOrderNotMet = apperror.Validation("PROMO_MIN_ORDER_NOT_MET", "Đơn hàng chưa đạt giá trị tối thiểu")

	ErrPromotionDuplicateUsage = apperror.Validation("PROMO_DUPLICATE_USAGE", "Mã giảm giá đã được áp dụng cho đơn hàng này")
	ErrInvalidSubtotal         = apperror.Validation("PROMO_INVALID_SUBTOTAL", "subtotal must not be negative")
)
