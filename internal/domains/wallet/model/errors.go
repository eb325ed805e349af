package model

import "bookstore-fulfillment/pkg/apperror"

var (
	ErrWalletNotFound       = apperror.NotFound("WALLET_NOT_FOUND", "Ví không tồn tại")
	ErrWalletInactive       = apperror.State("WALLET_INACTIVE", "Ví đang bị khóa")
	ErrInvalidAmount        = apperror.Validation("WALLET_INVALID_AMOUNT", "Số tiền phải lớn hơn 0")
	ErrInsufficientBalance  = apperror.Validation("WALLET_INSUFFICIENT_BALANCE", "Số dư không đủ")
	ErrWithdrawalOutOfRange = apperror.Validation("WALLET_WITHDRAWAL_OUT_OF_RANGE", "Số tiền rút nằm ngoài hạn mức cho phép")
	ErrInvalidWithdrawal    = apperror.Validation("WALLET_INVALID_WITHDRAWAL", "Dữ liệu rút tiền không hợp lệ")
	ErrMissingReference     = apperror.Validation("WALLET_MISSING_REFERENCE", "reference type and id are required")
)
