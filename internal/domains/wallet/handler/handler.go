package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"bookstore-fulfillment/internal/domains/wallet/model"
	"bookstore-fulfillment/internal/shared/middleware"
	"bookstore-fulfillment/internal/shared/response"
	"bookstore-fulfillment/internal/shared/utils"
	"bookstore-fulfillment/pkg/logger"
)

type Service interface {
	GetMyWallet(ctx context.Context, sellerID uuid.UUID) (*model.WalletResponse, error)
	ListTransactions(ctx context.Context, sellerID uuid.UUID, page, limit int) ([]model.WalletTransaction, int, error)
	ExportTransactions(ctx context.Context, sellerID uuid.UUID, filter model.TransactionFilter) (*excelize.File, error)
	Withdraw(ctx context.Context, sellerID uuid.UUID, req model.CreateWithdrawalRequest) (*model.WithdrawalRequest, error)
}

type WalletHandler struct {
	service Service
}

func NewWalletHandler(service Service) *WalletHandler {
	return &WalletHandler{service: service}
}

// GetMyWallet
// @Router /v1/wallet [get]
func (h *WalletHandler) GetMyWallet(c *gin.Context) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	wallet, err := h.service.GetMyWallet(c.Request.Context(), id.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, wallet)
}

// ListTransactions
// @Router /v1/wallet/transactions [get]
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	page, limit := utils.ParsePagination(c.Query("page"), c.Query("limit"))
	txs, total, err := h.service.ListTransactions(c.Request.Context(), id.UserID, page, limit)
	if err != nil {
		response.FromError(c, err)
		return
	}

	if txs == nil {
		txs = []model.WalletTransaction{}
	}
	response.SuccessWithMeta(c, http.StatusOK, txs, &response.Meta{Page: page, Limit: limit, Total: total})
}

// ExportTransactions trả file xlsx sao kê, query from/to dạng YYYY-MM-DD
// @Router /v1/wallet/transactions/export [get]
func (h *WalletHandler) ExportTransactions(c *gin.Context) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var filter model.TransactionFilter
	if v := c.Query("from"); v != "" {
		from, err := time.Parse(time.DateOnly, v)
		if err != nil {
			response.BadRequest(c, "from phải có dạng YYYY-MM-DD")
			return
		}
		filter.From = from
	}
	if v := c.Query("to"); v != "" {
		to, err := time.Parse(time.DateOnly, v)
		if err != nil {
			response.BadRequest(c, "to phải có dạng YYYY-MM-DD")
			return
		}
		// to là ngày cuối cùng, tính cả ngày đó
		filter.To = to.AddDate(0, 0, 1)
	}

	f, err := h.service.ExportTransactions(c.Request.Context(), id.UserID, filter)
	if err != nil {
		response.FromError(c, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("wallet_statement_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		logger.Error("failed to write wallet statement", err)
	}
}

// CreateWithdrawal
// @Router /v1/wallet/withdrawals [post]
func (h *WalletHandler) CreateWithdrawal(c *gin.Context) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req model.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	w, err := h.service.Withdraw(c.Request.Context(), id.UserID, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, w)
}
