package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookstore-fulfillment/internal/domains/cart/model"
	"bookstore-fulfillment/internal/shared/middleware"
	"bookstore-fulfillment/internal/shared/response"
)

type Loader interface {
	Load(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]model.ShopGroup, error)
}

// CartHandler chỉ đọc: checkout mới là nơi ghi.
type CartHandler struct {
	loader Loader
}

func NewCartHandler(loader Loader) *CartHandler {
	return &CartHandler{loader: loader}
}

// RegisterRoutes: router phải đã có Auth middleware
func (h *CartHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/cart/preview", h.Preview) // POST /v1/cart/preview
}

// Preview nhóm các item được chọn theo shop với giá hiện tại.
func (h *CartHandler) Preview(c *gin.Context) {
	actor, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req model.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}

	groups, err := h.loader.Load(c.Request.Context(), actor.UserID, req.CartItemIDs)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, model.NewPreview(groups))
}
