package model

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	orderModel "bookstore-fulfillment/internal/domains/order/model"
)

var phoneRegex = regexp.MustCompile(`^(0|\+84)[0-9]{9,10}$`)

// AddressInput là địa chỉ giao hàng gửi lên lúc checkout.
type AddressInput struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	AddressLine   string `json:"address_line"`
	Ward          string `json:"ward"`
	District      string `json:"district"`
	Province      string `json:"province"`
}

func (a AddressInput) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.RecipientName, validation.Required, validation.Length(2, 100)),
		validation.Field(&a.Phone, validation.Required, validation.Match(phoneRegex).Error("số điện thoại không hợp lệ")),
		validation.Field(&a.AddressLine, validation.Required, validation.Length(5, 255)),
		validation.Field(&a.Ward, validation.Required, validation.Length(1, 100)),
		validation.Field(&a.District, validation.Required, validation.Length(1, 100)),
		validation.Field(&a.Province, validation.Required, validation.Length(1, 100)),
	)
}

func (a AddressInput) Snapshot() orderModel.ShippingAddress {
	return orderModel.ShippingAddress{
		RecipientName: a.RecipientName,
		Phone:         a.Phone,
		AddressLine:   a.AddressLine,
		Ward:          a.Ward,
		District:      a.District,
		Province:      a.Province,
	}
}

// CheckoutRequest is the body of POST /checkout.
type CheckoutRequest struct {
	CartItemIDs     []uuid.UUID              `json:"cart_item_ids"`
	PromotionCode   string                   `json:"promotion_code,omitempty"`
	PaymentMethod   orderModel.PaymentMethod `json:"payment_method"`
	ShippingAddress AddressInput             `json:"shipping_address"`

	// ClientIP do handler gán, VNPay cần vnp_IpAddr
	ClientIP string `json:"-"`
}

func (r *CheckoutRequest) Normalize() {
	r.PromotionCode = strings.ToUpper(strings.TrimSpace(r.PromotionCode))
	r.PaymentMethod = orderModel.PaymentMethod(strings.ToLower(strings.TrimSpace(string(r.PaymentMethod))))

	a := &r.ShippingAddress
	a.RecipientName = strings.TrimSpace(a.RecipientName)
	a.Phone = strings.ReplaceAll(strings.TrimSpace(a.Phone), " ", "")
	a.AddressLine = strings.TrimSpace(a.AddressLine)
	a.Ward = strings.TrimSpace(a.Ward)
	a.District = strings.TrimSpace(a.District)
	a.Province = strings.TrimSpace(a.Province)
}

func (r CheckoutRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CartItemIDs, validation.Required, validation.Length(1, 100), validation.Each(validation.By(notNilUUID))),
		validation.Field(&r.PromotionCode, validation.Length(3, 50)),
		validation.Field(&r.PaymentMethod, validation.Required, validation.In(orderModel.PaymentMethodCOD, orderModel.PaymentMethodVNPay)),
		validation.Field(&r.ShippingAddress),
	)
}

func notNilUUID(value interface{}) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return validation.NewError("validation_uuid", "must be a valid id")
	}
	return nil
}

// =====================================================
// RESULT
// =====================================================

type CheckoutResult struct {
	GroupOrderID  uuid.UUID                `json:"group_order_id"`
	GroupNumber   string                   `json:"group_number"`
	PaymentMethod orderModel.PaymentMethod `json:"payment_method"`
	Subtotal      decimal.Decimal          `json:"subtotal"`
	ShippingFee   decimal.Decimal          `json:"shipping_fee"`
	Discount      decimal.Decimal          `json:"discount"`
	Total         decimal.Decimal          `json:"total"`
	Orders        []*orderModel.Order      `json:"orders"`

	// Chỉ có với vnpay
	TxnRef     string     `json:"txn_ref,omitempty"`
	PaymentURL string     `json:"payment_url,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}
