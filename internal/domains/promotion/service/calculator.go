package service

import (
	"github.com/shopspring/decimal"

	"bookstore-fulfillment/internal/domains/promotion/model"
)

var hundred = decimal.NewFromInt(100)

// ComputeDiscount tính số tiền giảm cho một subtotal.
//
//   - percentage: subtotal × value / 100, cap bởi MaxDiscountAmount
//   - fixed: value, không vượt quá subtotal
//
// Kết quả làm tròn đến VND và luôn nằm trong [0, subtotal].
func ComputeDiscount(promo *model.Promotion, subtotal decimal.Decimal) decimal.Decimal {
	if promo == nil || !subtotal.IsPositive() {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch promo.DiscountType {
	case model.DiscountTypePercentage:
		discount = subtotal.Mul(promo.DiscountValue).Div(hundred)
		if promo.MaxDiscountAmount != nil && discount.GreaterThan(*promo.MaxDiscountAmount) {
			discount = *promo.MaxDiscountAmount
		}
	case model.DiscountTypeFixed:
		discount = promo.DiscountValue
	default:
		return decimal.Zero
	}

	discount = discount.Round(0)
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount
}
