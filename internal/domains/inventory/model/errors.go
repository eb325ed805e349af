package model

import "bookstore-fulfillment/pkg/apperror"

var (
	ErrInsufficientStock = apperror.Validation("INSUFFICIENT_STOCK", "insufficient stock for one or more items")
	ErrBookNotFound      = apperror.Validation("BOOK_NOT_FOUND", "book not found or inactive")
	ErrInvalidQuantity   = apperror.Validation("INVALID_QUANTITY", "quantity must be positive")
)
