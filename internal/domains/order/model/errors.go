package model

import "bookstore-fulfillment/pkg/apperror"

var (
	ErrOrderNotFound        = apperror.NotFound("ORDER_NOT_FOUND", "Không tìm thấy đơn hàng")
	ErrGroupNotFound        = apperror.NotFound("ORDER_GROUP_NOT_FOUND", "Không tìm thấy nhóm đơn hàng")
	ErrInvalidTransition    = apperror.State("ORDER_INVALID_TRANSITION", "Không thể chuyển trạng thái đơn hàng")
	ErrOrderNotCancellable  = apperror.State("ORDER_NOT_CANCELLABLE", "Đơn hàng không thể hủy ở trạng thái hiện tại")
	ErrAdminRequired        = apperror.State("ORDER_ADMIN_REQUIRED", "Chỉ admin được cập nhật trạng thái đơn hàng")
	ErrInvalidStatus        = apperror.Validation("ORDER_INVALID_STATUS", "Trạng thái đơn hàng không hợp lệ")
	ErrAwaitingPayment      = apperror.State("ORDER_AWAITING_PAYMENT", "Đơn hàng chưa được thanh toán")
	ErrPartialCancelUnpaid  = apperror.State("ORDER_PARTIAL_CANCEL_UNPAID", "Không thể hủy lẻ đơn trong nhóm chưa thanh toán, đơn sẽ tự hủy khi hết hạn thanh toán")
	ErrInvalidPaymentMethod = apperror.Validation("ORDER_INVALID_PAYMENT_METHOD", "Phương thức thanh toán không hợp lệ")
)
