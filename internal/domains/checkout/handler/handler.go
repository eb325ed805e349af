package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookstore-fulfillment/internal/domains/checkout/model"
	"bookstore-fulfillment/internal/shared/middleware"
	"bookstore-fulfillment/internal/shared/response"
)

type Service interface {
	Checkout(ctx context.Context, actor middleware.Identity, req model.CheckoutRequest) (*model.CheckoutResult, error)
}

type CheckoutHandler struct {
	service Service
}

func NewCheckoutHandler(service Service) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// RegisterRoutes: router phải đã có Auth middleware
func (h *CheckoutHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/checkout", h.Checkout) // POST /v1/checkout
}

func (h *CheckoutHandler) Checkout(c *gin.Context) {
	actor, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req model.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	req.ClientIP = middleware.GetClientIP(c)

	result, err := h.service.Checkout(c.Request.Context(), actor, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}
