package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	cartModel "bookstore-fulfillment/internal/domains/cart/model"
	inventoryModel "bookstore-fulfillment/internal/domains/inventory/model"
	orderModel "bookstore-fulfillment/internal/domains/order/model"
	paymentModel "bookstore-fulfillment/internal/domains/payment/model"
	promotionModel "bookstore-fulfillment/internal/domains/promotion/model"
	"bookstore-fulfillment/internal/infrastructure/outbox"
)

// Checkout chỉ phụ thuộc vào các interface nhỏ dưới đây,
// implement bởi service của từng domain.

type CartLoader interface {
	Load(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]cartModel.ShopGroup, error)
	DeleteConsumedTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, itemIDs []uuid.UUID) error
}

type StockKeeper interface {
	Check(ctx context.Context, lines []inventoryModel.StockLine) ([]inventoryModel.Shortage, error)
	DecrementTx(ctx context.Context, tx pgx.Tx, lines []inventoryModel.StockLine, referenceID uuid.UUID) error
}

type PromotionEngine interface {
	Validate(ctx context.Context, code string, userID uuid.UUID, subtotal decimal.Decimal) (*promotionModel.ValidationResult, error)
	Allocate(total decimal.Decimal, subtotals []decimal.Decimal) []decimal.Decimal
	RecordUsageTx(ctx context.Context, tx pgx.Tx, promotionID, userID, groupOrderID uuid.UUID, subtotal, discount decimal.Decimal) error
}

type OrderCreator interface {
	CreateTx(ctx context.Context, tx pgx.Tx, group *orderModel.GroupOrder, orders []*orderModel.Order) error
	ConfirmCODTx(ctx context.Context, tx pgx.Tx, groupID uuid.UUID) ([]orderModel.Order, error)
}

type PaymentReserver interface {
	ReserveTx(ctx context.Context, tx pgx.Tx, groupID, userID uuid.UUID, amount decimal.Decimal, ttl time.Duration) (*paymentModel.Reservation, error)
	PaymentURL(ctx context.Context, res *paymentModel.Reservation, clientIP, orderInfo string) (string, error)
}

type EventWriter interface {
	Emit(ctx context.Context, tx pgx.Tx, eventType outbox.EventType, aggType outbox.AggregateType, aggID uuid.UUID, data interface{}) error
}

// ShippingPolicy quyết định phí ship cho từng đơn con.
type ShippingPolicy interface {
	FeeFor(group cartModel.ShopGroup) decimal.Decimal
}

// FlatShipping: mỗi shop order cùng một mức phí (mặc định 0).
type FlatShipping struct {
	Fee decimal.Decimal
}

func (f FlatShipping) FeeFor(cartModel.ShopGroup) decimal.Decimal {
	return f.Fee
}
