package vnpay

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bookstore-fulfillment/internal/domains/payment/gateway"
	"bookstore-fulfillment/internal/domains/payment/model"
	"bookstore-fulfillment/internal/shared/utils"
	"bookstore-fulfillment/pkg/logger"
)

// =====================================================
// VNPAY CLIENT
// =====================================================

type Client struct {
	config *Config
}

func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid VNPay config: %w", err)
	}
	return &Client{config: config}, nil
}

var _ gateway.VNPayGateway = (*Client)(nil)

// =====================================================
// CREATE PAYMENT URL
// =====================================================

func (c *Client) CreatePaymentURL(ctx context.Context, req gateway.PaymentRequest) (string, error) {
	if req.TxnRef == "" {
		return "", model.ErrInvalidRequest.WithMessage("txn_ref is required")
	}
	if !req.Amount.IsPositive() {
		return "", model.ErrInvalidRequest.WithMessage("amount must be positive")
	}

	// VNPay requires IPv4 format
	clientIP := req.ClientIP
	if clientIP == "" || clientIP == "::1" {
		clientIP = "127.0.0.1"
	}
	if clientIP == "127.0.0.1" {
		logger.Warn("VNPay request with localhost IP", map[string]interface{}{
			"txn_ref": req.TxnRef,
		})
	}

	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	expiresAt := req.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = createdAt.Add(15 * time.Minute)
	}

	params := map[string]string{
		"vnp_Version":    c.config.Version,
		"vnp_Command":    c.config.Command,
		"vnp_TmnCode":    c.config.TmnCode,
		"vnp_Amount":     FormatAmount(req.Amount),
		"vnp_CurrCode":   c.config.CurrCode,
		"vnp_TxnRef":     req.TxnRef,
		"vnp_OrderInfo":  utils.RemoveVietnameseAccents(req.OrderInfo),
		"vnp_OrderType":  c.config.OrderType,
		"vnp_Locale":     c.config.Locale,
		"vnp_ReturnUrl":  c.config.ReturnURL,
		"vnp_IpAddr":     clientIP,
		"vnp_CreateDate": createdAt.In(vnLocation).Format(dateLayout),
		"vnp_ExpireDate": expiresAt.In(vnLocation).Format(dateLayout),
	}

	return BuildPaymentURL(c.config.PaymentURL, params, c.config.HashSecret), nil
}

// FormatAmount: VND không có phần lẻ, nhân 100 theo yêu cầu VNPay.
// 100,000 VND -> "10000000"
func FormatAmount(amount decimal.Decimal) string {
	return amount.Round(0).Mul(decimal.NewFromInt(100)).StringFixed(0)
}

// ParseAmount: "10000000" -> 100,000 VND
func ParseAmount(s string) (decimal.Decimal, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return decimal.NewFromInt(n).Div(decimal.NewFromInt(100)), nil
}

// =====================================================
// VERIFY CALLBACK (return + IPN)
// =====================================================

var requiredCallbackFields = []string{"vnp_TxnRef", "vnp_ResponseCode", "vnp_SecureHash"}

func (c *Client) VerifyCallback(params map[string]string) (*gateway.CallbackResult, error) {
	var missing []string
	for _, f := range requiredCallbackFields {
		if strings.TrimSpace(params[f]) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, model.ErrMissingParams.WithDetails(map[string]interface{}{"missing": missing})
	}

	if !VerifySignature(params, c.config.HashSecret) {
		return nil, model.ErrInvalidSignature.WithDetails(map[string]interface{}{
			"txn_ref": params["vnp_TxnRef"],
		})
	}

	result := &gateway.CallbackResult{
		TxnRef:            params["vnp_TxnRef"],
		ResponseCode:      params["vnp_ResponseCode"],
		TransactionStatus: params["vnp_TransactionStatus"],
		TransactionNo:     params["vnp_TransactionNo"],
		BankCode:          params["vnp_BankCode"],
	}

	if raw := params["vnp_Amount"]; raw != "" {
		amount, err := ParseAmount(raw)
		if err != nil {
			return nil, model.ErrInvalidGatewayData.Wrap(err)
		}
		result.Amount = amount
	}

	if raw := params["vnp_PayDate"]; raw != "" {
		payDate, err := time.ParseInLocation(dateLayout, raw, vnLocation)
		if err != nil {
			return nil, model.ErrInvalidGatewayData.Wrap(err)
		}
		result.PayDate = payDate
	}

	return result, nil
}
