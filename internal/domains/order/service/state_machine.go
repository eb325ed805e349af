package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	inventoryModel "bookstore-fulfillment/internal/domains/inventory/model"
	"bookstore-fulfillment/internal/domains/order/model"
	"bookstore-fulfillment/internal/domains/order/repository"
	walletModel "bookstore-fulfillment/internal/domains/wallet/model"
	"bookstore-fulfillment/internal/infrastructure/outbox"
	"bookstore-fulfillment/internal/shared/middleware"
	"bookstore-fulfillment/pkg/database"
	"bookstore-fulfillment/pkg/logger"
)

// Service drives every order status change through model.CanTransition.
type Service struct {
	repo   repository.Repository
	tx     database.TxRunner
	stock  Restocker
	wallet SellerLedger
	events EventWriter
	now    func() time.Time
}

func NewService(repo repository.Repository, tx database.TxRunner, stock Restocker, wallet SellerLedger, events EventWriter) *Service {
	return &Service{
		repo:   repo,
		tx:     tx,
		stock:  stock,
		wallet: wallet,
		events: events,
		now:    time.Now,
	}
}

// statusChangedEvent is the payload of order.status_changed.
type statusChangedEvent struct {
	OrderID      uuid.UUID         `json:"order_id"`
	GroupOrderID uuid.UUID         `json:"group_order_id"`
	ShopID       uuid.UUID         `json:"shop_id"`
	From         model.OrderStatus `json:"from"`
	To           model.OrderStatus `json:"to"`
	Note         string            `json:"note,omitempty"`
}

// transitionTx validates from → to, applies the money side effects of the
// target state, persists the order and writes history + outbox.
// Restock for cancellations is done by the caller so books of several orders
// can be locked in one ascending pass.
func (s *Service) transitionTx(ctx context.Context, tx pgx.Tx, o *model.Order, to model.OrderStatus, actor *uuid.UUID, note string) error {
	from := o.Status
	if !model.CanTransition(from, to) {
		return model.ErrInvalidTransition.WithDetails(map[string]interface{}{
			"order_id": o.ID,
			"from":     from,
			"to":       to,
			"allowed":  model.AllowedTransitions(from),
		})
	}

	now := s.now()
	switch to {
	case model.StatusCancelled:
		o.CancelledAt = &now
		if note != "" {
			reason := note
			o.CancellationReason = &reason
		}
		if o.IsPaid() {
			// hoàn tiền: seller bị trừ lại khoản đã nhận, thiếu số dư thì hủy không thành
			if _, err := s.wallet.DebitSellerTx(ctx, tx, o.SellerID, o.Total,
				walletModel.RefOrderReversal, o.ID, "Hoàn tiền đơn hủy "+o.OrderNumber); err != nil {
				return err
			}
			o.PaymentStatus = model.PaymentRefunded
		} else if o.PaymentStatus == model.PaymentPending {
			o.PaymentStatus = model.PaymentFailed
		}

	case model.StatusDelivered:
		o.DeliveredAt = &now
		if o.IsCOD() && !o.IsPaid() {
			if _, err := s.wallet.CreditSellerTx(ctx, tx, o.SellerID, o.Total,
				walletModel.RefOrderSettlement, o.ID, "Thanh toán COD đơn "+o.OrderNumber); err != nil {
				return err
			}
			o.PaymentStatus = model.PaymentPaid
			o.PaidAt = &now
		}

	case model.StatusRefunded:
		settled, err := s.wallet.HasEntryTx(ctx, tx, walletModel.RefOrderSettlement, o.ID)
		if err != nil {
			return err
		}
		if settled {
			if _, err := s.wallet.DebitSellerTx(ctx, tx, o.SellerID, o.Total,
				walletModel.RefOrderRefund, o.ID, "Hoàn tiền đơn "+o.OrderNumber); err != nil {
				return err
			}
		}
		o.PaymentStatus = model.PaymentRefunded
	}

	o.Status = to
	if err := s.repo.UpdateOrder(ctx, tx, o); err != nil {
		return err
	}

	fromCopy := from
	if err := s.repo.InsertHistory(ctx, tx, &model.StatusHistory{
		ID:         uuid.New(),
		OrderID:    o.ID,
		FromStatus: &fromCopy,
		ToStatus:   to,
		ChangedBy:  actor,
		Note:       note,
	}); err != nil {
		return err
	}

	return s.events.Emit(ctx, tx, outbox.EventOrderStatusChanged, outbox.AggregateOrder, o.ID, statusChangedEvent{
		OrderID:      o.ID,
		GroupOrderID: o.GroupOrderID,
		ShopID:       o.ShopID,
		From:         from,
		To:           to,
		Note:         note,
	})
}

// cancelOrdersTx restocks every item of orders in one ascending pass and
// then moves each order to CANCELLED.
func (s *Service) cancelOrdersTx(ctx context.Context, tx pgx.Tx, orders []*model.Order, reason inventoryModel.MovementReason, actor *uuid.UUID, note string) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		if !o.CanCancel() {
			return model.ErrOrderNotCancellable.WithDetails(map[string]interface{}{
				"order_id": o.ID,
				"status":   o.Status,
			})
		}
		ids[i] = o.ID
	}

	items, err := s.repo.GetItemsTx(ctx, tx, ids)
	if err != nil {
		return err
	}
	lines := make([]inventoryModel.StockLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, inventoryModel.StockLine{BookID: it.BookID, Quantity: it.Quantity})
	}
	if len(lines) > 0 {
		// reference = group id khi hủy cả nhóm, order id khi hủy lẻ
		ref := orders[0].GroupOrderID
		if len(orders) == 1 {
			ref = orders[0].ID
		}
		if err := s.stock.RestockTx(ctx, tx, lines, ref, reason); err != nil {
			return err
		}
	}

	for _, o := range orders {
		if err := s.transitionTx(ctx, tx, o, model.StatusCancelled, actor, note); err != nil {
			return err
		}
	}
	return nil
}

// lockOrderTx locks the parent group before the order so every path that
// touches a group takes locks in the same order (group → orders).
func (s *Service) lockOrderTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (*model.Order, *model.GroupOrder, error) {
	// group_order_id không đổi nên đọc không lock là đủ
	snapshot, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if snapshot == nil {
		return nil, nil, model.ErrOrderNotFound
	}

	group, err := s.repo.LockGroup(ctx, tx, snapshot.GroupOrderID)
	if err != nil {
		return nil, nil, err
	}
	if group == nil {
		return nil, nil, model.ErrGroupNotFound
	}

	o, err := s.repo.LockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if o == nil {
		return nil, nil, model.ErrOrderNotFound
	}
	return o, group, nil
}

// syncGroupAfterCancelTx đánh dấu group CANCELLED khi mọi order con đã hủy.
// Group phải đang được lock bởi caller.
func (s *Service) syncGroupAfterCancelTx(ctx context.Context, tx pgx.Tx, group *model.GroupOrder) error {
	orders, err := s.repo.LockOrdersByGroup(ctx, tx, group.ID)
	if err != nil {
		return err
	}
	for _, o := range orders {
		if o.Status != model.StatusCancelled {
			return nil
		}
	}

	payment := group.PaymentStatus
	switch payment {
	case model.PaymentPaid:
		payment = model.PaymentRefunded
	case model.PaymentPending:
		payment = model.PaymentFailed
	}
	return s.repo.UpdateGroupStatus(ctx, tx, group.ID, model.GroupCancelled, payment)
}

// =====================================================================
// TX-SCOPED ENTRY POINTS (checkout, reconciliation)
// =====================================================================

// CreateTx persists the group, its orders, items and the initial history rows.
func (s *Service) CreateTx(ctx context.Context, tx pgx.Tx, group *model.GroupOrder, orders []*model.Order) error {
	if err := s.repo.CreateGroup(ctx, tx, group); err != nil {
		return err
	}

	for _, o := range orders {
		if err := s.repo.CreateOrder(ctx, tx, o); err != nil {
			return err
		}
		if err := s.repo.CreateItems(ctx, tx, o.Items); err != nil {
			return err
		}
		userID := group.UserID
		if err := s.repo.InsertHistory(ctx, tx, &model.StatusHistory{
			ID:        uuid.New(),
			OrderID:   o.ID,
			ToStatus:  o.Status,
			ChangedBy: &userID,
			Note:      "Đặt hàng",
		}); err != nil {
			return err
		}
	}
	return nil
}

// ConfirmPaidTx marks every live order of the group PAID and moves the ones
// still PENDING to PROCESSING. CANCELLED/REFUNDED orders are skipped. It
// returns the orders settled by this call; the caller credits the sellers.
func (s *Service) ConfirmPaidTx(ctx context.Context, tx pgx.Tx, groupID uuid.UUID, paidAt time.Time) ([]model.Order, error) {
	orders, err := s.lockGroupOrdersTx(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}

	var settled []model.Order
	for i := range orders {
		o := &orders[i]
		if o.Status == model.StatusCancelled || o.Status == model.StatusRefunded || o.IsPaid() {
			logger.Warn("skip settlement for order", map[string]interface{}{
				"order_id":       o.ID,
				"status":         o.Status,
				"payment_status": o.PaymentStatus,
			})
			continue
		}

		t := paidAt
		o.PaymentStatus = model.PaymentPaid
		o.PaidAt = &t
		if o.Status == model.StatusPending {
			err = s.transitionTx(ctx, tx, o, model.StatusProcessing, nil, "Thanh toán thành công")
		} else {
			// đã rời PENDING trước khi tiền về: chỉ ghi nhận thanh toán
			err = s.repo.UpdateOrder(ctx, tx, o)
		}
		if err != nil {
			return nil, err
		}
		settled = append(settled, *o)
	}

	// nhóm đã bị hủy hết thì giữ CANCELLED, caller tự xử lý tiền về muộn
	if len(settled) > 0 {
		if err := s.repo.UpdateGroupStatus(ctx, tx, groupID, model.GroupPaid, model.PaymentPaid); err != nil {
			return nil, err
		}
	}
	return settled, nil
}

// ConfirmCODTx xác nhận đơn COD ngay khi checkout, tiền về seller khi DELIVERED.
func (s *Service) ConfirmCODTx(ctx context.Context, tx pgx.Tx, groupID uuid.UUID) ([]model.Order, error) {
	orders, err := s.lockGroupOrdersTx(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}

	var confirmed []model.Order
	for i := range orders {
		o := &orders[i]
		if o.Status != model.StatusPending {
			continue
		}
		if err := s.transitionTx(ctx, tx, o, model.StatusProcessing, nil, "Xác nhận đơn COD"); err != nil {
			return nil, err
		}
		confirmed = append(confirmed, *o)
	}
	return confirmed, nil
}

func (s *Service) lockGroupOrdersTx(ctx context.Context, tx pgx.Tx, groupID uuid.UUID) ([]model.Order, error) {
	group, err := s.repo.LockGroup(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, model.ErrGroupNotFound
	}
	return s.repo.LockOrdersByGroup(ctx, tx, groupID)
}

// guardUnpaidCancelTx: một reservation trả cho cả nhóm, nên đơn VNPay chưa
// thanh toán chỉ được hủy khi nó là đơn cuối cùng còn sống của nhóm.
func (s *Service) guardUnpaidCancelTx(ctx context.Context, tx pgx.Tx, o *model.Order) error {
	if !o.AwaitingOnlinePayment() {
		return nil
	}
	siblings, err := s.repo.LockOrdersByGroup(ctx, tx, o.GroupOrderID)
	if err != nil {
		return err
	}
	for _, sib := range siblings {
		if sib.ID != o.ID && sib.Status != model.StatusCancelled {
			return model.ErrPartialCancelUnpaid.WithDetails(map[string]interface{}{
				"order_id":       o.ID,
				"group_order_id": o.GroupOrderID,
			})
		}
	}
	return nil
}

// CancelGroupTx cancels every still-cancellable order of the group, restocks
// and marks the group CANCELLED. Used for payment failure and expiry.
func (s *Service) CancelGroupTx(ctx context.Context, tx pgx.Tx, groupID uuid.UUID, reason inventoryModel.MovementReason, note string) error {
	group, err := s.repo.LockGroup(ctx, tx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return model.ErrGroupNotFound
	}

	orders, err := s.repo.LockOrdersByGroup(ctx, tx, groupID)
	if err != nil {
		return err
	}

	var targets []*model.Order
	for i := range orders {
		if orders[i].CanCancel() {
			targets = append(targets, &orders[i])
		}
	}
	if err := s.cancelOrdersTx(ctx, tx, targets, reason, nil, note); err != nil {
		return err
	}

	payment := model.PaymentFailed
	if group.PaymentStatus == model.PaymentPaid {
		payment = model.PaymentRefunded
	}
	return s.repo.UpdateGroupStatus(ctx, tx, groupID, model.GroupCancelled, payment)
}

// =====================================================================
// STANDALONE ENTRY POINTS (HTTP)
// =====================================================================

// UpdateStatus is the admin override. Any move still has to pass CanTransition.
func (s *Service) UpdateStatus(ctx context.Context, actor middleware.Identity, orderID uuid.UUID, to model.OrderStatus, note string) (*model.Order, error) {
	if !actor.IsAdmin() {
		return nil, model.ErrAdminRequired
	}
	if !to.IsValid() {
		return nil, model.ErrInvalidStatus
	}

	var result *model.Order
	err := database.RetryOnConflict(ctx, "order.update_status", func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx pgx.Tx) error {
			o, group, err := s.lockOrderTx(ctx, tx, orderID)
			if err != nil {
				return err
			}

			actorID := actor.UserID
			if to == model.StatusCancelled {
				if err := s.guardUnpaidCancelTx(ctx, tx, o); err != nil {
					return err
				}
				if err := s.cancelOrdersTx(ctx, tx, []*model.Order{o}, inventoryModel.ReasonCancellation, &actorID, note); err != nil {
					return err
				}
				if err := s.syncGroupAfterCancelTx(ctx, tx, group); err != nil {
					return err
				}
			} else {
				// đơn VNPay chỉ rời PENDING qua đối soát thanh toán
				if o.AwaitingOnlinePayment() {
					return model.ErrAwaitingPayment.WithDetails(map[string]interface{}{
						"order_id": o.ID,
						"to":       to,
					})
				}
				if err := s.transitionTx(ctx, tx, o, to, &actorID, note); err != nil {
					return err
				}
			}
			result = o
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("order status updated", map[string]interface{}{
		"order_id": orderID,
		"status":   to,
		"actor":    actor.UserID,
	})
	return result, nil
}

// Cancel is the buyer cancel. Only the owner (or an admin) may cancel.
func (s *Service) Cancel(ctx context.Context, actor middleware.Identity, orderID uuid.UUID, reason string) (*model.Order, error) {
	var result *model.Order
	err := database.RetryOnConflict(ctx, "order.cancel", func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx pgx.Tx) error {
			o, group, err := s.lockOrderTx(ctx, tx, orderID)
			if err != nil {
				return err
			}
			if o.UserID != actor.UserID && !actor.IsAdmin() {
				return model.ErrOrderNotFound
			}
			if !o.CanCancel() {
				return model.ErrOrderNotCancellable.WithDetails(map[string]interface{}{"status": o.Status})
			}
			if err := s.guardUnpaidCancelTx(ctx, tx, o); err != nil {
				return err
			}

			actorID := actor.UserID
			if err := s.cancelOrdersTx(ctx, tx, []*model.Order{o}, inventoryModel.ReasonCancellation, &actorID, reason); err != nil {
				return err
			}
			if err := s.syncGroupAfterCancelTx(ctx, tx, group); err != nil {
				return err
			}
			result = o
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("order cancelled", map[string]interface{}{
		"order_id": orderID,
		"user_id":  actor.UserID,
	})
	return result, nil
}

// GetOrder trả chi tiết đơn cho buyer, seller của shop hoặc admin.
func (s *Service) GetOrder(ctx context.Context, actor middleware.Identity, orderID uuid.UUID) (*model.OrderDetailResponse, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil || !(o.UserID == actor.UserID || o.SellerID == actor.UserID || actor.IsAdmin()) {
		return nil, model.ErrOrderNotFound
	}

	items, err := s.repo.GetItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	o.Items = items

	history, err := s.repo.GetHistory(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return &model.OrderDetailResponse{Order: o, History: history}, nil
}
