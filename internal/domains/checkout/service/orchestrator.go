package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	cartModel "bookstore-fulfillment/internal/domains/cart/model"
	"bookstore-fulfillment/internal/domains/checkout/model"
	inventoryModel "bookstore-fulfillment/internal/domains/inventory/model"
	orderModel "bookstore-fulfillment/internal/domains/order/model"
	paymentModel "bookstore-fulfillment/internal/domains/payment/model"
	promotionModel "bookstore-fulfillment/internal/domains/promotion/model"
	"bookstore-fulfillment/internal/infrastructure/outbox"
	"bookstore-fulfillment/internal/shared/middleware"
	"bookstore-fulfillment/pkg/apperror"
	"bookstore-fulfillment/pkg/database"
	"bookstore-fulfillment/pkg/logger"
	"bookstore-fulfillment/pkg/metrics"
)

type Config struct {
	ReservationTTL time.Duration
}

// Orchestrator turns selected cart items into a group order in one transaction.
type Orchestrator struct {
	tx         database.TxRunner
	cart       CartLoader
	stock      StockKeeper
	promotions PromotionEngine
	orders     OrderCreator
	payments   PaymentReserver
	events     EventWriter
	shipping   ShippingPolicy
	cfg        Config
	metrics    *metrics.OutcomeMetrics
	now        func() time.Time
}

func NewOrchestrator(
	tx database.TxRunner,
	cart CartLoader,
	stock StockKeeper,
	promotions PromotionEngine,
	orders OrderCreator,
	payments PaymentReserver,
	events EventWriter,
	shipping ShippingPolicy,
	cfg Config,
	m *metrics.OutcomeMetrics,
) *Orchestrator {
	if shipping == nil {
		shipping = FlatShipping{Fee: decimal.Zero}
	}
	if cfg.ReservationTTL <= 0 {
		cfg.ReservationTTL = 15 * time.Minute
	}
	return &Orchestrator{
		tx:         tx,
		cart:       cart,
		stock:      stock,
		promotions: promotions,
		orders:     orders,
		payments:   payments,
		events:     events,
		shipping:   shipping,
		cfg:        cfg,
		metrics:    m,
		now:        time.Now,
	}
}

// completedEvent is the payload of checkout.completed.
type completedEvent struct {
	GroupOrderID  uuid.UUID                `json:"group_order_id"`
	GroupNumber   string                   `json:"group_number"`
	UserID        uuid.UUID                `json:"user_id"`
	PaymentMethod orderModel.PaymentMethod `json:"payment_method"`
	Total         decimal.Decimal          `json:"total"`
	OrderIDs      []uuid.UUID              `json:"order_ids"`
}

// plan là kết quả tính toán trước khi mở transaction.
type plan struct {
	groups   []cartModel.ShopGroup
	lines    []inventoryModel.StockLine
	subtotal decimal.Decimal
	promo    *promotionModel.ValidationResult
}

// =====================================================
// CHECKOUT
// =====================================================

func (o *Orchestrator) Checkout(ctx context.Context, actor middleware.Identity, req model.CheckoutRequest) (*model.CheckoutResult, error) {
	result, err := o.checkout(ctx, actor, req)
	o.metrics.Inc(outcomeLabel(err))
	return result, err
}

func (o *Orchestrator) checkout(ctx context.Context, actor middleware.Identity, req model.CheckoutRequest) (*model.CheckoutResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, model.ErrInvalidCheckout.WithDetails(err)
	}

	p, err := o.prepare(ctx, actor.UserID, req)
	if err != nil {
		return nil, err
	}

	var (
		result      *model.CheckoutResult
		reservation *paymentModel.Reservation
	)
	err = database.RetryOnConflict(ctx, "checkout", func(ctx context.Context) error {
		return o.tx.WithTx(ctx, func(tx pgx.Tx) error {
			r, res, err := o.placeTx(ctx, tx, actor.UserID, req, p)
			if err != nil {
				return err
			}
			result, reservation = r, res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("checkout completed", map[string]interface{}{
		"group_order_id": result.GroupOrderID,
		"user_id":        actor.UserID,
		"orders":         len(result.Orders),
		"total":          result.Total.String(),
		"payment_method": result.PaymentMethod,
	})

	// build URL sau commit, ngoài mọi lock
	if reservation != nil {
		url, err := o.payments.PaymentURL(ctx, reservation, req.ClientIP, "Thanh toan don hang "+result.GroupNumber)
		if err != nil {
			// đơn đã tạo, reservation sẽ hết hạn và được sweep hoàn kho
			logger.ErrorFields("failed to build VNPay URL", err, map[string]interface{}{
				"group_order_id": result.GroupOrderID,
				"txn_ref":        reservation.TxnRef,
			})
		}
		result.PaymentURL = url
	}
	return result, nil
}

// prepare: load + partition, pre-check stock, validate promotion on the whole cart.
// Không ghi gì vào DB.
func (o *Orchestrator) prepare(ctx context.Context, userID uuid.UUID, req model.CheckoutRequest) (*plan, error) {
	groups, err := o.cart.Load(ctx, userID, req.CartItemIDs)
	if err != nil {
		return nil, err
	}

	p := &plan{groups: groups, subtotal: decimal.Zero}
	for _, g := range groups {
		p.subtotal = p.subtotal.Add(g.Subtotal())
		for _, it := range g.Items {
			p.lines = append(p.lines, inventoryModel.StockLine{BookID: it.BookID, Quantity: it.Quantity})
		}
	}

	shortages, err := o.stock.Check(ctx, p.lines)
	if err != nil {
		return nil, err
	}
	if len(shortages) > 0 {
		return nil, inventoryModel.ErrInsufficientStock.WithDetails(shortages)
	}

	if req.PromotionCode != "" {
		p.promo, err = o.promotions.Validate(ctx, req.PromotionCode, userID, p.subtotal)
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// placeTx: books (ascending) → orders → promotion → reservation → cart → outbox.
func (o *Orchestrator) placeTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, req model.CheckoutRequest, p *plan) (*model.CheckoutResult, *paymentModel.Reservation, error) {
	now := o.now()
	groupID := uuid.New()

	if err := o.stock.DecrementTx(ctx, tx, p.lines, groupID); err != nil {
		return nil, nil, err
	}

	group, orders := o.buildOrders(groupID, userID, req, p, now)
	if req.PaymentMethod == orderModel.PaymentMethodVNPay && !group.Total.IsPositive() {
		return nil, nil, model.ErrZeroTotalOnline
	}

	if err := o.orders.CreateTx(ctx, tx, group, orders); err != nil {
		return nil, nil, err
	}

	if p.promo != nil {
		if err := o.promotions.RecordUsageTx(ctx, tx, p.promo.Promotion.ID, userID, groupID, p.subtotal, group.Discount); err != nil {
			return nil, nil, err
		}
	}

	result := &model.CheckoutResult{
		GroupOrderID:  group.ID,
		GroupNumber:   group.GroupNumber,
		PaymentMethod: group.PaymentMethod,
		Subtotal:      group.Subtotal,
		ShippingFee:   group.ShippingFee,
		Discount:      group.Discount,
		Total:         group.Total,
		Orders:        orders,
	}

	var reservation *paymentModel.Reservation
	switch req.PaymentMethod {
	case orderModel.PaymentMethodVNPay:
		res, err := o.payments.ReserveTx(ctx, tx, groupID, userID, group.Total, o.cfg.ReservationTTL)
		if err != nil {
			return nil, nil, err
		}
		reservation = res
		result.TxnRef = res.TxnRef
		expires := res.ExpiresAt
		result.ExpiresAt = &expires
	case orderModel.PaymentMethodCOD:
		confirmed, err := o.orders.ConfirmCODTx(ctx, tx, groupID)
		if err != nil {
			return nil, nil, err
		}
		byID := make(map[uuid.UUID]orderModel.Order, len(confirmed))
		for _, c := range confirmed {
			byID[c.ID] = c
		}
		for _, ord := range orders {
			if c, ok := byID[ord.ID]; ok {
				ord.Status = c.Status
			}
		}
	default:
		return nil, nil, orderModel.ErrInvalidPaymentMethod
	}

	if err := o.cart.DeleteConsumedTx(ctx, tx, userID, req.CartItemIDs); err != nil {
		return nil, nil, err
	}

	orderIDs := make([]uuid.UUID, len(orders))
	for i, ord := range orders {
		orderIDs[i] = ord.ID
	}
	err := o.events.Emit(ctx, tx, outbox.EventCheckoutCompleted, outbox.AggregateGroupOrder, groupID, completedEvent{
		GroupOrderID:  groupID,
		GroupNumber:   group.GroupNumber,
		UserID:        userID,
		PaymentMethod: group.PaymentMethod,
		Total:         group.Total,
		OrderIDs:      orderIDs,
	})
	if err != nil {
		return nil, nil, err
	}
	return result, reservation, nil
}

// buildOrders tạo group + một order mỗi shop. Discount chia theo tỷ lệ subtotal,
// phần dư dồn vào order cuối.
func (o *Orchestrator) buildOrders(groupID, userID uuid.UUID, req model.CheckoutRequest, p *plan, now time.Time) (*orderModel.GroupOrder, []*orderModel.Order) {
	subtotals := make([]decimal.Decimal, len(p.groups))
	for i, g := range p.groups {
		subtotals[i] = g.Subtotal()
	}

	discount := decimal.Zero
	shares := make([]decimal.Decimal, len(p.groups))
	for i := range shares {
		shares[i] = decimal.Zero
	}
	group := &orderModel.GroupOrder{
		ID:              groupID,
		GroupNumber:     orderModel.GenerateOrderNumber("GRP", now),
		UserID:          userID,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   orderModel.PaymentPending,
		Status:          orderModel.GroupPending,
		ShippingAddress: req.ShippingAddress.Snapshot(),
	}
	if p.promo != nil {
		discount = p.promo.Discount
		shares = o.promotions.Allocate(discount, subtotals)
		promoID := p.promo.Promotion.ID
		code := p.promo.Promotion.Code
		group.PromotionID = &promoID
		group.PromotionCode = &code
	}

	orders := make([]*orderModel.Order, len(p.groups))
	subtotal, shipping, total := decimal.Zero, decimal.Zero, decimal.Zero
	for i, g := range p.groups {
		ord := &orderModel.Order{
			ID:            uuid.New(),
			GroupOrderID:  groupID,
			OrderNumber:   orderModel.GenerateOrderNumber("ORD", now),
			UserID:        userID,
			ShopID:        g.ShopID,
			SellerID:      g.SellerID,
			Status:        orderModel.StatusPending,
			PaymentMethod: req.PaymentMethod,
			PaymentStatus: orderModel.PaymentPending,
			Subtotal:      subtotals[i],
			ShippingFee:   o.shipping.FeeFor(g),
			Discount:      shares[i],
		}
		ord.Total = ord.CalculateTotal()

		ord.Items = make([]orderModel.OrderItem, len(g.Items))
		for j, it := range g.Items {
			ord.Items[j] = orderModel.OrderItem{
				ID:        uuid.New(),
				OrderID:   ord.ID,
				BookID:    it.BookID,
				Title:     it.Title,
				UnitPrice: it.UnitPrice,
				Quantity:  it.Quantity,
				LineTotal: it.LineTotal(),
			}
		}

		subtotal = subtotal.Add(ord.Subtotal)
		shipping = shipping.Add(ord.ShippingFee)
		total = total.Add(ord.Total)
		orders[i] = ord
	}

	group.Subtotal = subtotal
	group.ShippingFee = shipping
	group.Discount = discount
	group.Total = total
	return group, orders
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return "rejected"
	case apperror.KindConflict:
		return "conflict"
	default:
		return "error"
	}
}
