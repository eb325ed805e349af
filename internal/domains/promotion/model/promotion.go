package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

func (dt DiscountType) IsValid() bool {
	return dt == DiscountTypePercentage || dt == DiscountTypeFixed
}

// Promotion là mã giảm giá áp dụng cho toàn bộ giỏ hàng
type Promotion struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`

	// MaxDiscountAmount chỉ áp dụng cho percentage
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	MinOrderValue     *decimal.Decimal `json:"min_order_value,omitempty"`

	UsageLimitPerUser *int `json:"usage_limit_per_user,omitempty"`
	TotalUsageLimit   *int `json:"total_usage_limit,omitempty"`
	CurrentUsageCount int  `json:"current_usage_count"`

	IsActive  bool      `json:"is_active"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InWindow reports now ∈ [StartDate, EndDate).
func (p *Promotion) InWindow(now time.Time) bool {
	return !now.Before(p.StartDate) && now.Before(p.EndDate)
}

// GlobalLimitReached is true when a total limit is set and used up.
func (p *Promotion) GlobalLimitReached() bool {
	return p.TotalUsageLimit != nil && p.CurrentUsageCount >= *p.TotalUsageLimit
}

// UserLimitReached is true when a per-user limit is set and used up.
func (p *Promotion) UserLimitReached(userUsage int) bool {
	return p.UsageLimitPerUser != nil && userUsage >= *p.UsageLimitPerUser
}
