package model

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// ValidatePromotionRequest is the body of POST /promotions/validate.
type ValidatePromotionRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func (r *ValidatePromotionRequest) Normalize() {
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
}

func (r ValidatePromotionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Subtotal, validation.By(nonNegativeDecimal)),
	)
}

func nonNegativeDecimal(value interface{}) error {
	d, ok := value.(decimal.Decimal)
	if !ok || d.IsNegative() {
		return validation.NewError("validation_non_negative", "must not be negative")
	}
	return nil
}

// ValidationResult is returned when every check passes.
type ValidationResult struct {
	Promotion *Promotion      `json:"promotion"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
}

type ValidationResponse struct {
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	DiscountType       DiscountType    `json:"discount_type"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	Discount           decimal.Decimal `json:"discount"`
	TotalAfterDiscount decimal.Decimal `json:"total_after_discount"`
}

func (r *ValidationResult) ToResponse() ValidationResponse {
	return ValidationResponse{
		Code:               r.Promotion.Code,
		Name:               r.Promotion.Name,
		DiscountType:       r.Promotion.DiscountType,
		Subtotal:           r.Subtotal,
		Discount:           r.Discount,
		TotalAfterDiscount: r.Subtotal.Sub(r.Discount),
	}
}
