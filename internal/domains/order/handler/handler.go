package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookstore-fulfillment/internal/domains/order/model"
	"bookstore-fulfillment/internal/shared/middleware"
	"bookstore-fulfillment/internal/shared/response"
)

type Service interface {
	GetOrder(ctx context.Context, actor middleware.Identity, orderID uuid.UUID) (*model.OrderDetailResponse, error)
	Cancel(ctx context.Context, actor middleware.Identity, orderID uuid.UUID, reason string) (*model.Order, error)
	UpdateStatus(ctx context.Context, actor middleware.Identity, orderID uuid.UUID, to model.OrderStatus, note string) (*model.Order, error)
}

// =====================================================
// ORDER HANDLER
// =====================================================
type OrderHandler struct {
	service Service
}

func NewOrderHandler(service Service) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes: router phải đã có Auth middleware
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	{
		orders.GET("/:id", h.GetOrderDetail)      // GET /v1/orders/:id
		orders.POST("/:id/cancel", h.CancelOrder) // POST /v1/orders/:id/cancel
	}

	admin := router.Group("/admin/orders", middleware.RequireRole(middleware.RoleAdmin))
	{
		admin.PATCH("/:id/status", h.UpdateOrderStatus) // PATCH /v1/admin/orders/:id/status
	}
}

func (h *OrderHandler) GetOrderDetail(c *gin.Context) {
	actor, orderID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	detail, err := h.service.GetOrder(c.Request.Context(), actor, orderID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, detail)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	actor, orderID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var req model.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	order, err := h.service.Cancel(c.Request.Context(), actor, orderID, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	actor, orderID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	order, err := h.service.UpdateStatus(c.Request.Context(), actor, orderID, req.Status, req.Note)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, order)
}

func (h *OrderHandler) actorAndID(c *gin.Context) (middleware.Identity, uuid.UUID, bool) {
	actor, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return middleware.Identity{}, uuid.Nil, false
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Order ID không hợp lệ")
		return middleware.Identity{}, uuid.Nil, false
	}
	return actor, orderID, true
}
