package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bookstore-fulfillment/internal/domains/promotion/model"
	"bookstore-fulfillment/internal/shared/middleware"
	"bookstore-fulfillment/internal/shared/response"
)

// Validator is the slice of the promotion engine the handler needs.
type Validator interface {
	Validate(ctx context.Context, code string, userID uuid.UUID, subtotal decimal.Decimal) (*model.ValidationResult, error)
}

type PromotionHandler struct {
	engine Validator
}

func NewPromotionHandler(engine Validator) *PromotionHandler {
	return &PromotionHandler{engine: engine}
}

// ValidatePromotion kiểm tra mã giảm giá với subtotal hiện tại, không ghi gì.
// @Router /v1/promotions/validate [post]
func (h *PromotionHandler) ValidatePromotion(c *gin.Context) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req model.ValidatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	result, err := h.engine.Validate(c.Request.Context(), req.Code, id.UserID, req.Subtotal)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result.ToResponse())
}
