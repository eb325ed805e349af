package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"bookstore-fulfillment/internal/domains/promotion/model"
	"bookstore-fulfillment/internal/domains/promotion/repository"
	"bookstore-fulfillment/pkg/logger"
)

// Engine validates codes, computes discounts and records redemptions.
type Engine struct {
	repo repository.Repository
	now  func() time.Time
}

func NewEngine(repo repository.Repository) *Engine {
	return &Engine{repo: repo, now: time.Now}
}

// Validate chạy các bước kiểm tra theo thứ tự, dừng ở lỗi đầu tiên:
// tồn tại → active → thời gian → per-user limit → global limit → min order.
func (e *Engine) Validate(ctx context.Context, code string, userID uuid.UUID, subtotal decimal.Decimal) (*model.ValidationResult, error) {
	if subtotal.IsNegative() {
		return nil, model.ErrInvalidSubtotal
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	promo, err := e.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, model.ErrPromotionNotFound
	}

	userUsage, err := e.repo.CountUserUsage(ctx, promo.ID, userID)
	if err != nil {
		return nil, err
	}
	if err := e.check(promo, userUsage, subtotal); err != nil {
		logger.Debug("promotion rejected", map[string]interface{}{
			"code":    code,
			"user_id": userID,
			"reason":  err.Error(),
		})
		return nil, err
	}

	return &model.ValidationResult{
		Promotion: promo,
		Subtotal:  subtotal,
		Discount:  ComputeDiscount(promo, subtotal),
	}, nil
}

func (e *Engine) check(promo *model.Promotion, userUsage int, subtotal decimal.Decimal) error {
	now := e.now()

	if !promo.IsActive {
		return model.ErrPromotionInactive
	}
	if now.Before(promo.StartDate) {
		return model.ErrPromotionNotStarted
	}
	if !promo.InWindow(now) {
		return model.ErrPromotionExpired
	}
	if promo.UserLimitReached(userUsage) {
		return model.ErrPromotionUserLimit.WithDetails(map[string]interface{}{
			"used":  userUsage,
			"limit": *promo.UsageLimitPerUser,
		})
	}
	if promo.GlobalLimitReached() {
		return model.ErrPromotionUsageExhausted
	}
	if promo.MinOrderValue != nil && subtotal.LessThan(*promo.MinOrderValue) {
		return model.ErrPromotionMinOrderNotMet.WithDetails(map[string]interface{}{
			"min_order_value": promo.MinOrderValue.String(),
			"subtotal":        subtotal.String(),
		})
	}
	return nil
}

// ComputeDiscount exposes the calculator on the engine.
func (e *Engine) ComputeDiscount(promo *model.Promotion, subtotal decimal.Decimal) decimal.Decimal {
	return ComputeDiscount(promo, subtotal)
}

// Allocate exposes the proportional allocator on the engine.
func (e *Engine) Allocate(total decimal.Decimal, subtotals []decimal.Decimal) []decimal.Decimal {
	return Allocate(total, subtotals)
}

// RecordUsageTx ghi PromotionUsage sau khi orders đã được insert trong cùng tx.
// Promotion row bị lock, toàn bộ limit được kiểm tra lại dưới lock trước khi ghi.
func (e *Engine) RecordUsageTx(ctx context.Context, tx pgx.Tx, promotionID, userID, groupOrderID uuid.UUID, subtotal, discount decimal.Decimal) error {
	promo, err := e.repo.LockByID(ctx, tx, promotionID)
	if err != nil {
		return err
	}
	if promo == nil {
		return model.ErrPromotionNotFound
	}

	userUsage, err := e.repo.CountUserUsageTx(ctx, tx, promotionID, userID)
	if err != nil {
		return err
	}
	if err := e.check(promo, userUsage, subtotal); err != nil {
		return err
	}

	if err := e.repo.InsertUsage(ctx, tx, &model.PromotionUsage{
		PromotionID:    promotionID,
		UserID:         userID,
		GroupOrderID:   groupOrderID,
		DiscountAmount: discount,
	}); err != nil {
		return err
	}

	return e.repo.IncrementUsageCount(ctx, tx, promotionID)
}
