package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// STATUS TYPES
// =====================================================

type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
	StatusRefunded   OrderStatus = "REFUNDED"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCOD   PaymentMethod = "cod"
	PaymentMethodVNPay PaymentMethod = "vnpay"
)

func (pm PaymentMethod) IsValid() bool {
	return pm == PaymentMethodCOD || pm == PaymentMethodVNPay
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// GroupStatus là trạng thái tổng của một lần checkout
type GroupStatus string

const (
	GroupPending   GroupStatus = "PENDING"
	GroupPaid      GroupStatus = "PAID"
	GroupCancelled GroupStatus = "CANCELLED"
)

// =====================================================
// ENTITIES
// =====================================================

// ShippingAddress được snapshot vào group lúc checkout (jsonb)
type ShippingAddress struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	AddressLine   string `json:"address_line"`
	Ward          string `json:"ward"`
	District      string `json:"district"`
	Province      string `json:"province"`
}

func (a ShippingAddress) String() string {
	return strings.Join([]string{a.AddressLine, a.Ward, a.District, a.Province}, ", ")
}

// GroupOrder is the aggregate created by one checkout. It owns one order per shop.
type GroupOrder struct {
	ID              uuid.UUID       `json:"id"`
	GroupNumber     string          `json:"group_number"`
	UserID          uuid.UUID       `json:"user_id"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingFee     decimal.Decimal `json:"shipping_fee"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	Status          GroupStatus     `json:"status"`
	PromotionID     *uuid.UUID      `json:"promotion_id,omitempty"`
	PromotionCode   *string         `json:"promotion_code,omitempty"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Order là đơn con của một shop
type Order struct {
	ID                 uuid.UUID       `json:"id"`
	GroupOrderID       uuid.UUID       `json:"group_order_id"`
	OrderNumber        string          `json:"order_number"`
	UserID             uuid.UUID       `json:"user_id"`
	ShopID             uuid.UUID       `json:"shop_id"`
	SellerID           uuid.UUID       `json:"seller_id"`
	Status             OrderStatus     `json:"status"`
	PaymentMethod      PaymentMethod   `json:"payment_method"`
	PaymentStatus      PaymentStatus   `json:"payment_status"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	ShippingFee        decimal.Decimal `json:"shipping_fee"`
	Discount           decimal.Decimal `json:"discount"`
	Total              decimal.Decimal `json:"total"`
	CancellationReason *string         `json:"cancellation_reason,omitempty"`
	PaidAt             *time.Time      `json:"paid_at,omitempty"`
	DeliveredAt        *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	// Items chỉ được load khi cần (checkout, cancel, detail)
	Items []OrderItem `json:"items,omitempty"`
}

// OrderItem freezes title and unit price at purchase time.
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	BookID    uuid.UUID       `json:"book_id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type StatusHistory struct {
	ID         uuid.UUID    `json:"id"`
	OrderID    uuid.UUID    `json:"order_id"`
	FromStatus *OrderStatus `json:"from_status,omitempty"`
	ToStatus   OrderStatus  `json:"to_status"`
	ChangedBy  *uuid.UUID   `json:"changed_by,omitempty"`
	Note       string       `json:"note,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// =====================================================
// HELPERS
// =====================================================

func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentPaid
}

func (o *Order) IsCOD() bool {
	return o.PaymentMethod == PaymentMethodCOD
}

// AwaitingOnlinePayment: đơn VNPay chưa nhận tiền, chưa bị hủy/hoàn.
func (o *Order) AwaitingOnlinePayment() bool {
	return !o.IsCOD() && o.PaymentStatus == PaymentPending &&
		o.Status != StatusCancelled && o.Status != StatusRefunded
}

// CalculateTotal = subtotal + shipping - discount, không âm
func (o *Order) CalculateTotal() decimal.Decimal {
	total := o.Subtotal.Add(o.ShippingFee).Sub(o.Discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// GenerateOrderNumber: prefix-yyMMdd-<8 hex>
func GenerateOrderNumber(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("060102"), suffix)
}
