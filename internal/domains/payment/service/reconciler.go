package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	inventoryModel "bookstore-fulfillment/internal/domains/inventory/model"
	"bookstore-fulfillment/internal/domains/payment/gateway"
	"bookstore-fulfillment/internal/domains/payment/gateway/vnpay"
	"bookstore-fulfillment/internal/domains/payment/model"
	"bookstore-fulfillment/internal/domains/payment/repository"
	walletModel "bookstore-fulfillment/internal/domains/wallet/model"
	"bookstore-fulfillment/internal/infrastructure/outbox"
	"bookstore-fulfillment/pkg/apperror"
	"bookstore-fulfillment/pkg/cache"
	"bookstore-fulfillment/pkg/database"
	"bookstore-fulfillment/pkg/logger"
	"bookstore-fulfillment/pkg/metrics"
)

const (
	terminalCacheTTL   = 24 * time.Hour
	DefaultExpiryBatch = 100
)

func terminalCacheKey(txnRef string) string {
	return cache.Key("payment", "reservation", txnRef)
}

// Reconciler owns payment reservations: it creates them at checkout and is
// the single place where return, IPN and the expiry sweep change them.
type Reconciler struct {
	repo    repository.Repository
	tx      database.TxRunner
	gateway gateway.VNPayGateway
	orders  OrderSettler
	wallet  SellerCreditor
	events  EventWriter
	cache   cache.Cache
	metrics *metrics.OutcomeMetrics
	now     func() time.Time
}

func NewReconciler(
	repo repository.Repository,
	tx database.TxRunner,
	gw gateway.VNPayGateway,
	orders OrderSettler,
	wallet SellerCreditor,
	events EventWriter,
	c cache.Cache,
	m *metrics.OutcomeMetrics,
) *Reconciler {
	return &Reconciler{
		repo:    repo,
		tx:      tx,
		gateway: gw,
		orders:  orders,
		wallet:  wallet,
		events:  events,
		cache:   c,
		metrics: m,
		now:     time.Now,
	}
}

// settledEvent is the payload of payment.settled.
type settledEvent struct {
	GroupOrderID  uuid.UUID       `json:"group_order_id"`
	TxnRef        string          `json:"txn_ref"`
	Amount        decimal.Decimal `json:"amount"`
	Unsettled     decimal.Decimal `json:"unsettled_amount"`
	TransactionNo string          `json:"transaction_no,omitempty"`
	OrderIDs      []uuid.UUID     `json:"order_ids"`
}

// =====================================================
// CHECKOUT SIDE
// =====================================================

// ReserveTx tạo reservation PENDING trong transaction của checkout.
func (r *Reconciler) ReserveTx(ctx context.Context, tx pgx.Tx, groupID, userID uuid.UUID, amount decimal.Decimal, ttl time.Duration) (*model.Reservation, error) {
	now := r.now()
	res := &model.Reservation{
		ID:           uuid.New(),
		GroupOrderID: groupID,
		UserID:       userID,
		TxnRef:       model.NewTxnRef(),
		Amount:       amount,
		Status:       model.ReservationPending,
		ExpiresAt:    now.Add(ttl),
	}
	if err := r.repo.CreateReservation(ctx, tx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// PaymentURL builds the signed redirect. Called after commit.
func (r *Reconciler) PaymentURL(ctx context.Context, res *model.Reservation, clientIP, orderInfo string) (string, error) {
	return r.gateway.CreatePaymentURL(ctx, gateway.PaymentRequest{
		TxnRef:    res.TxnRef,
		Amount:    res.Amount,
		OrderInfo: orderInfo,
		ClientIP:  clientIP,
		CreatedAt: r.now(),
		ExpiresAt: res.ExpiresAt,
	})
}

// =====================================================
// INBOUND CALLBACKS
// =====================================================

// ReturnResult là response cho browser return
type ReturnResult struct {
	model.ReconcileResult
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HandleReturn verifies the browser return and reconciles it.
func (r *Reconciler) HandleReturn(ctx context.Context, params map[string]string) (*ReturnResult, error) {
	cb, result, err := r.handleCallback(ctx, model.SourceReturn, params)
	if err != nil {
		return nil, err
	}
	return &ReturnResult{
		ReconcileResult: *result,
		Success:         result.Status == model.ReservationCompleted && cb.Success(),
		Message:         vnpay.ResponseMessage(cb.ResponseCode),
	}, nil
}

// HandleIPN never returns an error: VNPay only reads RspCode/Message.
func (r *Reconciler) HandleIPN(ctx context.Context, params map[string]string) model.IPNResponse {
	_, result, err := r.handleCallback(ctx, model.SourceIPN, params)
	return ipnResponse(result, err)
}

func ipnResponse(result *model.ReconcileResult, err error) model.IPNResponse {
	switch {
	case err == nil && result.Duplicate:
		return model.IPNResponse{RspCode: model.RspAlreadyConfirmed, Message: "Order already confirmed"}
	case err == nil:
		return model.IPNResponse{RspCode: model.RspConfirmSuccess, Message: "Confirm Success"}
	case errors.Is(err, model.ErrInvalidSignature), errors.Is(err, model.ErrMissingParams):
		return model.IPNResponse{RspCode: model.RspInvalidSignature, Message: "Invalid Checksum"}
	case errors.Is(err, model.ErrReservationNotFound):
		return model.IPNResponse{RspCode: model.RspOrderNotFound, Message: "Order not found"}
	case errors.Is(err, model.ErrAmountMismatch):
		return model.IPNResponse{RspCode: model.RspInvalidAmount, Message: "Invalid amount"}
	default:
		return model.IPNResponse{RspCode: model.RspUnknownError, Message: "Unknown error"}
	}
}

// handleCallback: verify → apply → ghi callback log (ngoài tx, kể cả khi lỗi).
func (r *Reconciler) handleCallback(ctx context.Context, source model.CallbackSource, params map[string]string) (*gateway.CallbackResult, *model.ReconcileResult, error) {
	entry := &model.CallbackLog{
		Source:    source,
		TxnRef:    params["vnp_TxnRef"],
		RawParams: params,
	}
	defer r.writeCallbackLog(ctx, entry)

	cb, err := r.gateway.VerifyCallback(params)
	if err != nil {
		entry.Outcome = "REJECTED"
		entry.SetError(err)
		r.metrics.Inc("invalid_signature")
		logger.Warn("rejected VNPay callback", map[string]interface{}{
			"source":  source,
			"txn_ref": entry.TxnRef,
			"error":   err.Error(),
		})
		return nil, nil, err
	}
	entry.SignatureValid = true

	outcome := model.Outcome{
		Kind:                 model.OutcomeFailure,
		Amount:               cb.Amount,
		GatewayTransactionNo: cb.TransactionNo,
		BankCode:             cb.BankCode,
		ResponseCode:         cb.ResponseCode,
		PayDate:              cb.PayDate,
	}
	if cb.Success() {
		outcome.Kind = model.OutcomeSuccess
	}
	entry.Outcome = string(outcome.Kind)

	result, err := r.apply(ctx, cb.TxnRef, outcome)
	if err != nil {
		entry.SetError(err)
		return cb, nil, err
	}
	switch {
	case result.LateSuccess:
		// tiền đã bị trừ nhưng đơn đã đóng: cần đối soát tay
		entry.Outcome = "LATE_SUCCESS"
	case result.Duplicate:
		entry.Outcome = "DUPLICATE"
	case result.Unsettled != nil:
		entry.Outcome = "PARTIAL_SETTLEMENT"
	}
	return cb, result, nil
}

func (r *Reconciler) writeCallbackLog(ctx context.Context, entry *model.CallbackLog) {
	if err := r.repo.InsertCallbackLog(context.WithoutCancel(ctx), entry); err != nil {
		logger.Error("failed to write callback log", err)
	}
}

// =====================================================
// EXPIRY SWEEP
// =====================================================

// ExpireStale expires past-due PENDING reservations. Individual failures are
// logged and skipped; the count of expired reservations is returned.
func (r *Reconciler) ExpireStale(ctx context.Context, now time.Time, batch int) (int, error) {
	if batch <= 0 {
		batch = DefaultExpiryBatch
	}
	refs, err := r.repo.ListExpired(ctx, now, batch)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, ref := range refs {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		result, err := r.apply(ctx, ref, model.Outcome{Kind: model.OutcomeExpiry, At: now})
		if err != nil {
			logger.ErrorFields("failed to expire reservation", err, map[string]interface{}{"txn_ref": ref})
			continue
		}
		if !result.Duplicate {
			expired++
		}
	}

	if len(refs) > 0 {
		logger.Info("reservation sweep finished", map[string]interface{}{
			"candidates": len(refs),
			"expired":    expired,
		})
	}
	return expired, nil
}

// =====================================================
// RECONCILIATION CORE
// =====================================================

// apply is the only function that mutates a reservation. It serializes on the
// reservation row lock, so return, IPN and sweep can race safely; whoever
// comes second sees a terminal status and gets Duplicate=true.
func (r *Reconciler) apply(ctx context.Context, txnRef string, outcome model.Outcome) (*model.ReconcileResult, error) {
	if cached := r.cachedTerminal(ctx, txnRef); cached != nil {
		cached.Duplicate = true
		cached.LateSuccess = outcome.Kind == model.OutcomeSuccess && cached.Status != model.ReservationCompleted
		r.metrics.Inc("duplicate")
		return cached, nil
	}

	var result *model.ReconcileResult
	err := database.RetryOnConflict(ctx, "payment.reconcile", func(ctx context.Context) error {
		return r.tx.WithTx(ctx, func(tx pgx.Tx) error {
			unsettled := decimal.Zero
			res, err := r.repo.LockByTxnRef(ctx, tx, txnRef)
			if err != nil {
				return err
			}
			if res == nil {
				return model.ErrReservationNotFound.WithDetails(map[string]interface{}{"txn_ref": txnRef})
			}

			if res.IsTerminal() {
				result = resultOf(res)
				result.Duplicate = true
				result.LateSuccess = outcome.Kind == model.OutcomeSuccess && res.Status != model.ReservationCompleted
				return nil
			}

			switch outcome.Kind {
			case model.OutcomeSuccess:
				unsettled, err = r.settleTx(ctx, tx, res, outcome)
			case model.OutcomeFailure:
				err = r.closeTx(ctx, tx, res, model.ReservationFailed, outcome, inventoryModel.ReasonFailed,
					fmt.Sprintf("Thanh toán thất bại (mã %s)", outcome.ResponseCode))
			case model.OutcomeExpiry:
				at := outcome.At
				if at.IsZero() {
					at = r.now()
				}
				if !res.IsPastDue(at) {
					return model.ErrNotExpired.WithDetails(map[string]interface{}{
						"txn_ref":    txnRef,
						"expires_at": res.ExpiresAt,
					})
				}
				err = r.closeTx(ctx, tx, res, model.ReservationExpired, outcome, inventoryModel.ReasonExpired,
					"Hết hạn thanh toán")
			default:
				err = apperror.Internal("PAYMENT_UNKNOWN_OUTCOME", "unknown outcome").WithDetails(outcome.Kind)
			}
			if err != nil {
				return err
			}
			result = resultOf(res)
			if unsettled.IsPositive() {
				result.Unsettled = &unsettled
			}
			return nil
		})
	})
	if err != nil {
		r.metrics.Inc(outcomeLabel(err))
		return nil, err
	}

	switch {
	case result.LateSuccess:
		r.metrics.Inc("late_success")
		logger.Warn("payment success after reservation closed, manual refund required", map[string]interface{}{
			"txn_ref":        txnRef,
			"status":         result.Status,
			"transaction_no": outcome.GatewayTransactionNo,
		})
	case result.Duplicate:
		r.metrics.Inc("duplicate")
	case result.Unsettled != nil:
		r.metrics.Inc("partial_settlement")
		logger.Warn("payment captured more than the live orders, manual refund required", map[string]interface{}{
			"txn_ref":        txnRef,
			"group_order_id": result.GroupOrderID,
			"unsettled":      result.Unsettled.String(),
		})
	default:
		r.metrics.Inc(string(result.Status))
	}

	r.cacheTerminal(ctx, result)
	return result, nil
}

func resultOf(res *model.Reservation) *model.ReconcileResult {
	return &model.ReconcileResult{
		TxnRef:       res.TxnRef,
		GroupOrderID: res.GroupOrderID,
		Status:       res.Status,
	}
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, model.ErrReservationNotFound):
		return "not_found"
	case errors.Is(err, model.ErrAmountMismatch):
		return "amount_mismatch"
	case errors.Is(err, model.ErrNotExpired):
		return "not_expired"
	default:
		return "error"
	}
}

// settleTx: reservation → group → orders → wallets, tất cả trong một tx.
// Trả về phần tiền không đơn nào nhận.
func (r *Reconciler) settleTx(ctx context.Context, tx pgx.Tx, res *model.Reservation, outcome model.Outcome) (decimal.Decimal, error) {
	if !outcome.Amount.Equal(res.Amount) {
		return decimal.Zero, model.ErrAmountMismatch.WithDetails(map[string]interface{}{
			"txn_ref":  res.TxnRef,
			"expected": res.Amount,
			"received": outcome.Amount,
		})
	}

	now := r.now()
	paidAt := outcome.PayDate
	if paidAt.IsZero() {
		paidAt = now
	}

	res.Status = model.ReservationCompleted
	res.CompletedAt = &now
	setGatewayFields(res, outcome)
	if err := r.repo.UpdateReservation(ctx, tx, res); err != nil {
		return decimal.Zero, err
	}

	settled, err := r.orders.ConfirmPaidTx(ctx, tx, res.GroupOrderID, paidAt)
	if err != nil {
		return decimal.Zero, err
	}

	credited := decimal.Zero
	orderIDs := make([]uuid.UUID, 0, len(settled))
	for _, o := range settled {
		desc := fmt.Sprintf("Thanh toán đơn hàng %s", o.OrderNumber)
		if _, err := r.wallet.CreditSellerTx(ctx, tx, o.SellerID, o.Total, walletModel.RefOrderSettlement, o.ID, desc); err != nil {
			return decimal.Zero, err
		}
		credited = credited.Add(o.Total)
		orderIDs = append(orderIDs, o.ID)
	}

	unsettled := res.Amount.Sub(credited)
	if unsettled.IsNegative() {
		unsettled = decimal.Zero
	}

	return unsettled, r.events.Emit(ctx, tx, outbox.EventPaymentSettled, outbox.AggregateGroupOrder, res.GroupOrderID, settledEvent{
		GroupOrderID:  res.GroupOrderID,
		TxnRef:        res.TxnRef,
		Amount:        res.Amount,
		Unsettled:     unsettled,
		TransactionNo: outcome.GatewayTransactionNo,
		OrderIDs:      orderIDs,
	})
}

// closeTx moves the reservation to FAILED/EXPIRED and cancels the group (restock).
func (r *Reconciler) closeTx(ctx context.Context, tx pgx.Tx, res *model.Reservation, status model.ReservationStatus, outcome model.Outcome, reason inventoryModel.MovementReason, note string) error {
	res.Status = status
	setGatewayFields(res, outcome)
	if err := r.repo.UpdateReservation(ctx, tx, res); err != nil {
		return err
	}
	return r.orders.CancelGroupTx(ctx, tx, res.GroupOrderID, reason, note)
}

func setGatewayFields(res *model.Reservation, outcome model.Outcome) {
	if outcome.GatewayTransactionNo != "" {
		v := outcome.GatewayTransactionNo
		res.GatewayTransactionNo = &v
	}
	if outcome.BankCode != "" {
		v := outcome.BankCode
		res.BankCode = &v
	}
	if outcome.ResponseCode != "" {
		v := outcome.ResponseCode
		res.ResponseCode = &v
	}
}

// =====================================================
// TERMINAL CACHE
// =====================================================

func (r *Reconciler) cachedTerminal(ctx context.Context, txnRef string) *model.ReconcileResult {
	if r.cache == nil {
		return nil
	}
	var cached model.ReconcileResult
	found, err := r.cache.Get(ctx, terminalCacheKey(txnRef), &cached)
	if err != nil {
		// cache lỗi thì đi đường lock
		logger.Warn("reservation cache read failed", map[string]interface{}{
			"txn_ref": txnRef,
			"error":   err.Error(),
		})
		return nil
	}
	if !found {
		return nil
	}
	return &cached
}

func (r *Reconciler) cacheTerminal(ctx context.Context, result *model.ReconcileResult) {
	if r.cache == nil || result.Status == model.ReservationPending {
		return
	}
	entry := model.ReconcileResult{
		TxnRef:       result.TxnRef,
		GroupOrderID: result.GroupOrderID,
		Status:       result.Status,
	}
	if err := r.cache.Set(ctx, terminalCacheKey(result.TxnRef), entry, terminalCacheTTL); err != nil {
		logger.Warn("reservation cache write failed", map[string]interface{}{
			"txn_ref": result.TxnRef,
			"error":   err.Error(),
		})
	}
}
