package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromotionUsage: một row cho mỗi lần (promotion, user, group order) được áp dụng.
// Unique trên bộ ba này, là nguồn sự thật cho per-user limit.
type PromotionUsage struct {
	ID             uuid.UUID       `json:"id"`
	PromotionID    uuid.UUID       `json:"promotion_id"`
	UserID         uuid.UUID       `json:"user_id"`
	GroupOrderID   uuid.UUID       `json:"group_order_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	UsedAt         time.Time       `json:"used_at"`
}
