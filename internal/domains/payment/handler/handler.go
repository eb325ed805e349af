package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookstore-fulfillment/internal/domains/payment/gateway/vnpay"
	"bookstore-fulfillment/internal/domains/payment/model"
	"bookstore-fulfillment/internal/domains/payment/service"
	"bookstore-fulfillment/internal/shared/response"
	"bookstore-fulfillment/pkg/logger"
)

type Service interface {
	HandleReturn(ctx context.Context, params map[string]string) (*service.ReturnResult, error)
	HandleIPN(ctx context.Context, params map[string]string) model.IPNResponse
}

type PaymentHandler struct {
	service Service
}

func NewPaymentHandler(service Service) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes: cả hai route đều public, xác thực bằng chữ ký VNPay
func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/payments/vnpay/return", h.VNPayReturn) // browser redirect
	router.GET("/webhooks/vnpay/ipn", h.VNPayIPN)       // server-to-server
}

// VNPayReturn
// GET /api/v1/payments/vnpay/return
func (h *PaymentHandler) VNPayReturn(c *gin.Context) {
	params, err := vnpay.ParseQuery(c.Request.URL.RawQuery)
	if err != nil {
		response.BadRequest(c, "Query string không hợp lệ")
		return
	}

	result, err := h.service.HandleReturn(c.Request.Context(), params)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// VNPayIPN luôn trả 200, VNPay chỉ đọc RspCode
// GET /api/v1/webhooks/vnpay/ipn
func (h *PaymentHandler) VNPayIPN(c *gin.Context) {
	params, err := vnpay.ParseQuery(c.Request.URL.RawQuery)
	if err != nil {
		logger.Warn("malformed IPN query", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusOK, model.IPNResponse{RspCode: model.RspUnknownError, Message: "Invalid request"})
		return
	}

	rsp := h.service.HandleIPN(c.Request.Context(), params)
	logger.Info("VNPay IPN handled", map[string]interface{}{
		"txn_ref":  params["vnp_TxnRef"],
		"rsp_code": rsp.RspCode,
	})
	c.JSON(http.StatusOK, rsp)
}
