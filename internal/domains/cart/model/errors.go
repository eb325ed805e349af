package model

import "bookstore-fulfillment/pkg/apperror"

var (
	ErrNoItemsSelected  = apperror.Validation("CART_NO_ITEMS_SELECTED", "Chưa chọn sản phẩm nào để thanh toán")
	ErrCartItemNotFound = apperror.Validation("CART_ITEM_NOT_FOUND", "Sản phẩm không có trong giỏ hàng")
	ErrBookUnavailable  = apperror.Validation("CART_BOOK_UNAVAILABLE", "Sách đã ngừng bán")
	ErrInvalidQuantity  = apperror.Validation("CART_INVALID_QUANTITY", "Số lượng không hợp lệ")
)
