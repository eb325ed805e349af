package vnpay

import (
	"fmt"
	"time"
)

// =====================================================
// VNPAY CONFIGURATION
// =====================================================

type Config struct {
	TmnCode    string // Merchant code (provided by VNPay)
	HashSecret string // Secret key for HMAC-SHA512 signature
	PaymentURL string // .../paymentv2/vpcpay.html
	ReturnURL  string // browser return, handled by this API
	Version    string // default "2.1.0"
	Command    string // default "pay"
	CurrCode   string // default "VND"
	Locale     string // default "vn"
	OrderType  string // default "other"
}

// NewConfig creates VNPay configuration with protocol defaults
func NewConfig(tmnCode, hashSecret, paymentURL, returnURL, locale string) *Config {
	if locale == "" {
		locale = "vn"
	}
	return &Config{
		TmnCode:    tmnCode,
		HashSecret: hashSecret,
		PaymentURL: paymentURL,
		ReturnURL:  returnURL,
		Version:    "2.1.0",
		Command:    "pay",
		CurrCode:   "VND",
		Locale:     locale,
		OrderType:  "other",
	}
}

// Validate validates configuration
func (c *Config) Validate() error {
	if c.TmnCode == "" {
		return fmt.Errorf("VNPay TmnCode is required")
	}
	if c.HashSecret == "" {
		return fmt.Errorf("VNPay HashSecret is required")
	}
	if c.PaymentURL == "" {
		return fmt.Errorf("VNPay PaymentURL is required")
	}
	if c.ReturnURL == "" {
		return fmt.Errorf("VNPay ReturnURL is required")
	}
	return nil
}

// =====================================================
// VNPAY CONSTANTS
// =====================================================

// dateLayout là yyyyMMddHHmmss, luôn theo giờ GMT+7
const dateLayout = "20060102150405"

// vnLocation: VNPay dùng giờ Việt Nam cho vnp_CreateDate/vnp_ExpireDate/vnp_PayDate.
var vnLocation = time.FixedZone("GMT+7", 7*60*60)

const (
	// Response codes
	ResponseCodeSuccess               = "00"
	ResponseCodeTransactionTimeout    = "07"
	ResponseCodeTransactionProcessing = "09"
	ResponseCodeCardLocked            = "10"
	ResponseCodeOTPExpired            = "11"
	ResponseCodeIncorrectOTP          = "13"
	ResponseCodeUserCancelled         = "24"
	ResponseCodeInsufficientBalance   = "51"
	ResponseCodeLimitExceeded         = "65"
	ResponseCodeBankMaintenance       = "75"
	ResponseCodeTimeout               = "79"
)

var responseMessages = map[string]string{
	ResponseCodeSuccess:               "Giao dịch thành công",
	ResponseCodeTransactionTimeout:    "Giao dịch hết hạn (timeout)",
	ResponseCodeTransactionProcessing: "Giao dịch đang xử lý",
	ResponseCodeCardLocked:            "Thẻ bị khóa",
	ResponseCodeOTPExpired:            "Mã OTP hết hạn",
	ResponseCodeIncorrectOTP:          "OTP không chính xác (nhập sai quá số lần)",
	ResponseCodeUserCancelled:         "Người dùng hủy giao dịch",
	ResponseCodeInsufficientBalance:   "Số dư tài khoản không đủ",
	ResponseCodeLimitExceeded:         "Vượt quá hạn mức thanh toán",
	ResponseCodeBankMaintenance:       "Ngân hàng đang bảo trì",
	ResponseCodeTimeout:               "Giao dịch hết hạn (timeout)",
}

// ResponseMessage returns Vietnamese message for response code
func ResponseMessage(code string) string {
	if msg, ok := responseMessages[code]; ok {
		return msg
	}
	return "Lỗi không xác định"
}
