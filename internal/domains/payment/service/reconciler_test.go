package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inventoryModel "bookstore-fulfillment/internal/domains/inventory/model"
	orderModel "bookstore-fulfillment/internal/domains/order/model"
	"bookstore-fulfillment/internal/domains/payment/gateway/vnpay"
	"bookstore-fulfillment/internal/domains/payment/model"
	walletModel "bookstore-fulfillment/internal/domains/wallet/model"
	"bookstore-fulfillment/internal/infrastructure/outbox"
	"bookstore-fulfillment/pkg/apperror"
	"bookstore-fulfillment/pkg/database"
	"bookstore-fulfillment/pkg/metrics"
)

const testSecret = "SECRETKEY123"

// =====================================================
// FAKES
// =====================================================

type fakeRepo struct {
	mu           sync.Mutex
	reservations map[string]*model.Reservation
	logs         []model.CallbackLog
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{reservations: map[string]*model.Reservation{}}
}

func (r *fakeRepo) CreateReservation(ctx context.Context, tx pgx.Tx, res *model.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reservations[res.TxnRef]; ok {
		return database.ErrConflict
	}
	cp := *res
	r.reservations[res.TxnRef] = &cp
	return nil
}

func (r *fakeRepo) LockByTxnRef(ctx context.Context, tx pgx.Tx, txnRef string) (*model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[txnRef]
	if !ok {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

func (r *fakeRepo) UpdateReservation(ctx context.Context, tx pgx.Tx, res *model.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *res
	r.reservations[res.TxnRef] = &cp
	return nil
}

func (r *fakeRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var refs []string
	for ref, res := range r.reservations {
		if res.Status == model.ReservationPending && res.ExpiresAt.Before(now) && len(refs) < limit {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

func (r *fakeRepo) InsertCallbackLog(ctx context.Context, log *model.CallbackLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeRepo) status(ref string) model.ReservationStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reservations[ref].Status
}

// serialTx giả lập row lock: một transaction tại một thời điểm.
type serialTx struct{ mu sync.Mutex }

func (s *serialTx) WithTx(ctx context.Context, fn database.TxFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(nil)
}

type fakeOrders struct {
	pending   map[uuid.UUID][]orderModel.Order
	confirmed []uuid.UUID
	cancelled []inventoryModel.MovementReason
}

func (f *fakeOrders) ConfirmPaidTx(ctx context.Context, tx pgx.Tx, groupID uuid.UUID, paidAt time.Time) ([]orderModel.Order, error) {
	orders := f.pending[groupID]
	delete(f.pending, groupID)
	f.confirmed = append(f.confirmed, groupID)
	return orders, nil
}

func (f *fakeOrders) CancelGroupTx(ctx context.Context, tx pgx.Tx, groupID uuid.UUID, reason inventoryModel.MovementReason, note string) error {
	delete(f.pending, groupID)
	f.cancelled = append(f.cancelled, reason)
	return nil
}

type credit struct {
	seller uuid.UUID
	amount decimal.Decimal
	refID  uuid.UUID
}

// fakeWallet is idempotent on (ref type, ref id) like the real ledger.
type fakeWallet struct {
	credits []credit
	seen    map[uuid.UUID]bool
}

func (w *fakeWallet) CreditSellerTx(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID, amount decimal.Decimal, refType walletModel.ReferenceType, refID uuid.UUID, description string) (*walletModel.WalletTransaction, error) {
	if w.seen == nil {
		w.seen = map[uuid.UUID]bool{}
	}
	if !w.seen[refID] {
		w.seen[refID] = true
		w.credits = append(w.credits, credit{seller: sellerID, amount: amount, refID: refID})
	}
	return &walletModel.WalletTransaction{ReferenceType: refType, ReferenceID: refID}, nil
}

type fakeEvents struct{ types []outbox.EventType }

func (e *fakeEvents) Emit(ctx context.Context, tx pgx.Tx, eventType outbox.EventType, aggType outbox.AggregateType, aggID uuid.UUID, data interface{}) error {
	e.types = append(e.types, eventType)
	return nil
}

type fakeCache struct {
	mu     sync.Mutex
	data   map[string]model.ReconcileResult
	getErr error
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return false, c.getErr
	}
	v, ok := c.data[key]
	if !ok {
		return false, nil
	}
	*dest.(*model.ReconcileResult) = v
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = map[string]model.ReconcileResult{}
	}
	c.data[key] = value.(model.ReconcileResult)
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error { return nil }

// =====================================================
// FIXTURE
// =====================================================

type fixture struct {
	rec     *Reconciler
	repo    *fakeRepo
	orders  *fakeOrders
	wallet  *fakeWallet
	events  *fakeEvents
	cache   *fakeCache
	now     time.Time
	group   uuid.UUID
	res     *model.Reservation
	sellerA uuid.UUID
	sellerB uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client, err := vnpay.NewClient(vnpay.NewConfig("DEMOV01", testSecret,
		"https://sandbox.vnpayment.vn/paymentv2/vpcpay.html", "http://localhost/return", "vn"))
	require.NoError(t, err)

	f := &fixture{
		repo:    newFakeRepo(),
		wallet:  &fakeWallet{},
		events:  &fakeEvents{},
		cache:   &fakeCache{},
		now:     time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
		group:   uuid.New(),
		sellerA: uuid.New(),
		sellerB: uuid.New(),
	}
	// Scenario: 2 shop orders, 150,000 + 80,000
	f.orders = &fakeOrders{pending: map[uuid.UUID][]orderModel.Order{
		f.group: {
			{ID: uuid.New(), GroupOrderID: f.group, SellerID: f.sellerA, OrderNumber: "ORD-A", Total: decimal.NewFromInt(150000)},
			{ID: uuid.New(), GroupOrderID: f.group, SellerID: f.sellerB, OrderNumber: "ORD-B", Total: decimal.NewFromInt(80000)},
		},
	}}

	f.rec = NewReconciler(f.repo, &serialTx{}, client, f.orders, f.wallet, f.events, f.cache, nil)
	f.rec.now = func() time.Time { return f.now }

	f.res, err = f.rec.ReserveTx(context.Background(), nil, f.group, uuid.New(), decimal.NewFromInt(230000), 15*time.Minute)
	require.NoError(t, err)
	return f
}

func (f *fixture) callback(amount, rsp, status string) map[string]string {
	p := map[string]string{
		"vnp_TmnCode":           "DEMOV01",
		"vnp_TxnRef":            f.res.TxnRef,
		"vnp_Amount":            amount,
		"vnp_ResponseCode":      rsp,
		"vnp_TransactionStatus": status,
		"vnp_TransactionNo":     "14012345",
		"vnp_BankCode":          "NCB",
		"vnp_PayDate":           "20250615170500",
	}
	p["vnp_SecureHash"] = vnpay.Sign(p, testSecret)
	return p
}

// =====================================================
// TESTS
// =====================================================

func TestReserveTx(t *testing.T) {
	f := newFixture(t)

	assert.Len(t, f.res.TxnRef, 32)
	assert.Equal(t, model.ReservationPending, f.res.Status)
	assert.Equal(t, f.now.Add(15*time.Minute), f.res.ExpiresAt)
}

func TestPaymentURL_CarriesReservation(t *testing.T) {
	f := newFixture(t)

	url, err := f.rec.PaymentURL(context.Background(), f.res, "10.0.0.1", "Thanh toán GRP-1")
	require.NoError(t, err)
	assert.Contains(t, url, "vnp_TxnRef="+f.res.TxnRef)
	assert.Contains(t, url, "vnp_Amount=23000000")
	assert.Contains(t, url, "vnp_SecureHash=")
}

func TestHandleIPN_SuccessCreditsEachSellerOnce(t *testing.T) {
	f := newFixture(t)
	params := f.callback("23000000", "00", "00")

	rsp := f.rec.HandleIPN(context.Background(), params)
	assert.Equal(t, model.RspConfirmSuccess, rsp.RspCode)
	assert.Equal(t, model.ReservationCompleted, f.repo.status(f.res.TxnRef))
	require.Len(t, f.wallet.credits, 2)
	assert.True(t, f.wallet.credits[0].amount.Equal(decimal.NewFromInt(150000)))
	assert.Equal(t, f.sellerA, f.wallet.credits[0].seller)
	assert.Equal(t, []outbox.EventType{outbox.EventPaymentSettled}, f.events.types)

	// replay: no-op, vẫn chỉ 2 giao dịch ví
	rsp = f.rec.HandleIPN(context.Background(), params)
	assert.Equal(t, model.RspAlreadyConfirmed, rsp.RspCode)
	assert.Len(t, f.wallet.credits, 2)
	assert.Len(t, f.orders.confirmed, 1)
	assert.Len(t, f.repo.logs, 2)
	assert.Equal(t, "DUPLICATE", f.repo.logs[1].Outcome)
}

func TestHandleIPN_ReplayWithoutCacheStillNoop(t *testing.T) {
	f := newFixture(t)
	f.cache.getErr = errors.New("redis down")
	params := f.callback("23000000", "00", "00")

	assert.Equal(t, model.RspConfirmSuccess, f.rec.HandleIPN(context.Background(), params).RspCode)
	assert.Equal(t, model.RspAlreadyConfirmed, f.rec.HandleIPN(context.Background(), params).RspCode)
	assert.Len(t, f.wallet.credits, 2)
	assert.Len(t, f.orders.confirmed, 1)
}

func TestReturnAndIPNRace_OneSettlement(t *testing.T) {
	f := newFixture(t)
	params := f.callback("23000000", "00", "00")

	var wg sync.WaitGroup
	var ret *ReturnResult
	var retErr error
	var ipn model.IPNResponse
	wg.Add(2)
	go func() {
		defer wg.Done()
		ret, retErr = f.rec.HandleReturn(context.Background(), params)
	}()
	go func() {
		defer wg.Done()
		ipn = f.rec.HandleIPN(context.Background(), params)
	}()
	wg.Wait()

	require.NoError(t, retErr)
	assert.True(t, ret.Success)
	assert.Contains(t, []string{model.RspConfirmSuccess, model.RspAlreadyConfirmed}, ipn.RspCode)
	// đúng một bên là duplicate
	assert.NotEqual(t, ret.Duplicate, ipn.RspCode == model.RspAlreadyConfirmed)
	assert.Len(t, f.wallet.credits, 2)
	assert.Len(t, f.orders.confirmed, 1)
}

func TestHandleIPN_TamperedSignature(t *testing.T) {
	f := newFixture(t)
	params := f.callback("23000000", "00", "00")
	params["vnp_Amount"] = "100"

	rsp := f.rec.HandleIPN(context.Background(), params)
	assert.Equal(t, model.RspInvalidSignature, rsp.RspCode)
	assert.Equal(t, model.ReservationPending, f.repo.status(f.res.TxnRef))
	assert.Empty(t, f.wallet.credits)

	// callback bị từ chối vẫn được lưu
	require.Len(t, f.repo.logs, 1)
	assert.False(t, f.repo.logs[0].SignatureValid)
	assert.Equal(t, "REJECTED", f.repo.logs[0].Outcome)
	require.NotNil(t, f.repo.logs[0].ErrorMessage)
}

func TestHandleIPN_AmountMismatch(t *testing.T) {
	f := newFixture(t)

	rsp := f.rec.HandleIPN(context.Background(), f.callback("100", "00", "00"))
	assert.Equal(t, model.RspInvalidAmount, rsp.RspCode)
	assert.Equal(t, model.ReservationPending, f.repo.status(f.res.TxnRef))
	assert.Empty(t, f.orders.confirmed)
}

func TestHandleIPN_UnknownTxnRef(t *testing.T) {
	f := newFixture(t)
	p := map[string]string{
		"vnp_TxnRef":            "doesnotexist",
		"vnp_Amount":            "100",
		"vnp_ResponseCode":      "00",
		"vnp_TransactionStatus": "00",
	}
	p["vnp_SecureHash"] = vnpay.Sign(p, testSecret)

	assert.Equal(t, model.RspOrderNotFound, f.rec.HandleIPN(context.Background(), p).RspCode)
}

func TestHandleIPN_FailureCancelsGroup(t *testing.T) {
	f := newFixture(t)

	rsp := f.rec.HandleIPN(context.Background(), f.callback("23000000", "24", "02"))
	assert.Equal(t, model.RspConfirmSuccess, rsp.RspCode)
	assert.Equal(t, model.ReservationFailed, f.repo.status(f.res.TxnRef))
	assert.Equal(t, []inventoryModel.MovementReason{inventoryModel.ReasonFailed}, f.orders.cancelled)
	assert.Empty(t, f.wallet.credits)
}

func TestHandleReturn_FailureMessage(t *testing.T) {
	f := newFixture(t)

	res, err := f.rec.HandleReturn(context.Background(), f.callback("23000000", "24", "02"))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, model.ReservationFailed, res.Status)
	assert.Equal(t, "Người dùng hủy giao dịch", res.Message)
}

func TestHandleReturn_InvalidSignatureIsGatewayError(t *testing.T) {
	f := newFixture(t)
	params := f.callback("23000000", "00", "00")
	params["vnp_SecureHash"] = "deadbeef"

	_, err := f.rec.HandleReturn(context.Background(), params)
	assert.True(t, apperror.IsKind(err, apperror.KindExternalGateway))
}

func TestLateSuccessAfterExpiry(t *testing.T) {
	f := newFixture(t)
	f.now = f.now.Add(20 * time.Minute)

	n, err := f.rec.ExpireStale(context.Background(), f.now, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	res, err := f.rec.HandleReturn(context.Background(), f.callback("23000000", "00", "00"))
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.True(t, res.LateSuccess)
	assert.False(t, res.Success)
	assert.Equal(t, model.ReservationExpired, f.repo.status(f.res.TxnRef))
	assert.Empty(t, f.wallet.credits)
	require.Len(t, f.repo.logs, 1)
	assert.Equal(t, "LATE_SUCCESS", f.repo.logs[0].Outcome)
}

func TestExpireStale_OnlyPastDue(t *testing.T) {
	f := newFixture(t)

	// chưa tới hạn
	n, err := f.rec.ExpireStale(context.Background(), f.now.Add(5*time.Minute), 100)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, model.ReservationPending, f.repo.status(f.res.TxnRef))

	f.now = f.now.Add(16 * time.Minute)
	n, err = f.rec.ExpireStale(context.Background(), f.now, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, model.ReservationExpired, f.repo.status(f.res.TxnRef))
	assert.Equal(t, []inventoryModel.MovementReason{inventoryModel.ReasonExpired}, f.orders.cancelled)

	// sweep lần nữa không làm gì
	n, err = f.rec.ExpireStale(context.Background(), f.now, 100)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, f.orders.cancelled, 1)
}

func TestApply_ExpiryBeforeDeadlineRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.rec.apply(context.Background(), f.res.TxnRef, model.Outcome{Kind: model.OutcomeExpiry, At: f.now})
	assert.ErrorIs(t, err, model.ErrNotExpired)
	assert.Equal(t, model.ReservationPending, f.repo.status(f.res.TxnRef))
}

func TestIPNResponseMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{model.ErrInvalidSignature, model.RspInvalidSignature},
		{model.ErrMissingParams, model.RspInvalidSignature},
		{model.ErrReservationNotFound, model.RspOrderNotFound},
		{model.ErrAmountMismatch, model.RspInvalidAmount},
		{database.ErrConflict, model.RspUnknownError},
		{errors.New("boom"), model.RspUnknownError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ipnResponse(nil, tc.err).RspCode, tc.err.Error())
	}
}

func TestSettlement_CapturedShareWithoutLiveOrderIsFlagged(t *testing.T) {
	f := newFixture(t)
	reg := prometheus.NewRegistry()
	f.rec.metrics = metrics.NewOutcomeMetrics(reg, "test_reconcile", "reconcile outcomes")
	// order B đã bị hủy trước khi tiền về, chỉ còn A sống
	f.orders.pending[f.group] = f.orders.pending[f.group][:1]

	res, err := f.rec.HandleReturn(context.Background(), f.callback("23000000", "00", "00"))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, model.ReservationCompleted, f.repo.status(f.res.TxnRef))

	require.Len(t, f.wallet.credits, 1)
	assert.Equal(t, f.sellerA, f.wallet.credits[0].seller)
	require.NotNil(t, res.Unsettled)
	assert.True(t, res.Unsettled.Equal(decimal.NewFromInt(80000)))

	require.Len(t, f.repo.logs, 1)
	assert.Equal(t, "PARTIAL_SETTLEMENT", f.repo.logs[0].Outcome)

	expected := `
# HELP test_reconcile_total reconcile outcomes
# TYPE test_reconcile_total counter
test_reconcile_total{outcome="partial_settlement"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_reconcile_total"))
}

func TestSettlement_FullGroupHasNoUnsettledAmount(t *testing.T) {
	f := newFixture(t)

	res, err := f.rec.HandleReturn(context.Background(), f.callback("23000000", "00", "00"))
	require.NoError(t, err)
	assert.Nil(t, res.Unsettled)
	assert.Equal(t, string(model.OutcomeSuccess), f.repo.logs[0].Outcome)
}
