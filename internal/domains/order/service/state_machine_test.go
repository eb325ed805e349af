package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inventoryModel "bookstore-fulfillment/internal/domains/inventory/model"
	"bookstore-fulfillment/internal/domains/order/model"
	walletModel "bookstore-fulfillment/internal/domains/wallet/model"
	"bookstore-fulfillment/internal/infrastructure/outbox"
	"bookstore-fulfillment/internal/shared/middleware"
	"bookstore-fulfillment/pkg/apperror"
	"bookstore-fulfillment/pkg/database"
)

// =====================================================
// FAKES
// =====================================================

type fakeRepo struct {
	groups  map[uuid.UUID]*model.GroupOrder
	orders  map[uuid.UUID]*model.Order
	items   map[uuid.UUID][]model.OrderItem
	history []model.StatusHistory
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		groups: map[uuid.UUID]*model.GroupOrder{},
		orders: map[uuid.UUID]*model.Order{},
		items:  map[uuid.UUID][]model.OrderItem{},
	}
}

func (r *fakeRepo) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	if o, ok := r.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeRepo) GetItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	return r.items[orderID], nil
}

func (r *fakeRepo) GetHistory(ctx context.Context, orderID uuid.UUID) ([]model.StatusHistory, error) {
	var out []model.StatusHistory
	for _, h := range r.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateGroup(ctx context.Context, tx pgx.Tx, g *model.GroupOrder) error {
	cp := *g
	r.groups[g.ID] = &cp
	return nil
}

func (r *fakeRepo) CreateOrder(ctx context.Context, tx pgx.Tx, o *model.Order) error {
	cp := *o
	cp.Items = nil
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeRepo) CreateItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	for _, it := range items {
		r.items[it.OrderID] = append(r.items[it.OrderID], it)
	}
	return nil
}

func (r *fakeRepo) LockGroup(ctx context.Context, tx pgx.Tx, groupID uuid.UUID) (*model.GroupOrder, error) {
	if g, ok := r.groups[groupID]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeRepo) LockOrdersByGroup(ctx context.Context, tx pgx.Tx, groupID uuid.UUID) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.orders {
		if o.GroupOrderID == groupID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeRepo) LockOrder(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	return r.GetOrder(ctx, id)
}

func (r *fakeRepo) GetItemsTx(ctx context.Context, tx pgx.Tx, orderIDs []uuid.UUID) ([]model.OrderItem, error) {
	var out []model.OrderItem
	for _, id := range orderIDs {
		out = append(out, r.items[id]...)
	}
	return out, nil
}

func (r *fakeRepo) UpdateOrder(ctx context.Context, tx pgx.Tx, o *model.Order) error {
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeRepo) UpdateGroupStatus(ctx context.Context, tx pgx.Tx, groupID uuid.UUID, status model.GroupStatus, payment model.PaymentStatus) error {
	r.groups[groupID].Status = status
	r.groups[groupID].PaymentStatus = payment
	return nil
}

func (r *fakeRepo) InsertHistory(ctx context.Context, tx pgx.Tx, h *model.StatusHistory) error {
	r.history = append(r.history, *h)
	return nil
}

type restockCall struct {
	lines  []inventoryModel.StockLine
	ref    uuid.UUID
	reason inventoryModel.MovementReason
}

type fakeStock struct{ calls []restockCall }

func (f *fakeStock) RestockTx(ctx context.Context, tx pgx.Tx, lines []inventoryModel.StockLine, ref uuid.UUID, reason inventoryModel.MovementReason) error {
	f.calls = append(f.calls, restockCall{lines: lines, ref: ref, reason: reason})
	return nil
}

type ledgerCall struct {
	seller uuid.UUID
	amount decimal.Decimal
	ref    walletModel.ReferenceType
	refID  uuid.UUID
}

type fakeLedger struct {
	credits  []ledgerCall
	debits   []ledgerCall
	debitErr error
}

func (f *fakeLedger) CreditSellerTx(ctx context.Context, tx pgx.Tx, seller uuid.UUID, amount decimal.Decimal, ref walletModel.ReferenceType, refID uuid.UUID, _ string) (*walletModel.WalletTransaction, error) {
	f.credits = append(f.credits, ledgerCall{seller, amount, ref, refID})
	return &walletModel.WalletTransaction{ID: uuid.New()}, nil
}

func (f *fakeLedger) DebitSellerTx(ctx context.Context, tx pgx.Tx, seller uuid.UUID, amount decimal.Decimal, ref walletModel.ReferenceType, refID uuid.UUID, _ string) (*walletModel.WalletTransaction, error) {
	if f.debitErr != nil {
		return nil, f.debitErr
	}
	f.debits = append(f.debits, ledgerCall{seller, amount, ref, refID})
	return &walletModel.WalletTransaction{ID: uuid.New()}, nil
}

func (f *fakeLedger) HasEntryTx(ctx context.Context, tx pgx.Tx, ref walletModel.ReferenceType, refID uuid.UUID) (bool, error) {
	for _, c := range f.credits {
		if c.ref == ref && c.refID == refID {
			return true, nil
		}
	}
	return false, nil
}

type fakeEvents struct{ types []outbox.EventType }

func (f *fakeEvents) Emit(ctx context.Context, tx pgx.Tx, t outbox.EventType, _ outbox.AggregateType, _ uuid.UUID, _ interface{}) error {
	f.types = append(f.types, t)
	return nil
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn database.TxFunc) error { return fn(nil) }

// =====================================================
// FIXTURES
// =====================================================

type fixture struct {
	svc    *Service
	repo   *fakeRepo
	stock  *fakeStock
	ledger *fakeLedger
	events *fakeEvents
	buyer  uuid.UUID
	group  *model.GroupOrder
	orders []*model.Order
}

func newFixture(t *testing.T, method model.PaymentMethod, shops int) *fixture {
	t.Helper()
	f := &fixture{
		repo:   newFakeRepo(),
		stock:  &fakeStock{},
		ledger: &fakeLedger{},
		events: &fakeEvents{},
		buyer:  uuid.New(),
	}
	f.svc = NewService(f.repo, fakeTx{}, f.stock, f.ledger, f.events)
	f.svc.now = func() time.Time { return time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC) }

	f.group = &model.GroupOrder{
		ID:            uuid.New(),
		UserID:        f.buyer,
		PaymentMethod: method,
		PaymentStatus: model.PaymentPending,
		Status:        model.GroupPending,
	}
	var orders []*model.Order
	for i := 0; i < shops; i++ {
		o := &model.Order{
			ID:            uuid.New(),
			GroupOrderID:  f.group.ID,
			OrderNumber:   "ORD-TEST",
			UserID:        f.buyer,
			ShopID:        uuid.New(),
			SellerID:      uuid.New(),
			Status:        model.StatusPending,
			PaymentMethod: method,
			PaymentStatus: model.PaymentPending,
			Total:         decimal.NewFromInt(100000),
		}
		o.Items = []model.OrderItem{{ID: uuid.New(), OrderID: o.ID, BookID: uuid.New(), Quantity: 2}}
		orders = append(orders, o)
	}
	require.NoError(t, f.svc.CreateTx(context.Background(), nil, f.group, orders))
	f.orders = orders
	return f
}

func (f *fixture) order(i int) *model.Order { return f.repo.orders[f.orders[i].ID] }

func buyerIdentity(id uuid.UUID) middleware.Identity {
	return middleware.Identity{UserID: id, Role: middleware.RoleUser}
}

var admin = middleware.Identity{UserID: uuid.New(), Role: middleware.RoleAdmin}

// =====================================================
// TESTS
// =====================================================

func TestCreateTx_WritesInitialHistory(t *testing.T) {
	f := newFixture(t, model.PaymentMethodVNPay, 2)
	assert.Len(t, f.repo.orders, 2)
	assert.Len(t, f.repo.history, 2)
	assert.Nil(t, f.repo.history[0].FromStatus)
	assert.Equal(t, model.StatusPending, f.repo.history[0].ToStatus)
}

func TestConfirmPaidTx(t *testing.T) {
	f := newFixture(t, model.PaymentMethodVNPay, 2)
	paidAt := time.Now()

	confirmed, err := f.svc.ConfirmPaidTx(context.Background(), nil, f.group.ID, paidAt)
	require.NoError(t, err)
	assert.Len(t, confirmed, 2)

	for i := range f.orders {
		assert.Equal(t, model.StatusProcessing, f.order(i).Status)
		assert.Equal(t, model.PaymentPaid, f.order(i).PaymentStatus)
	}
	assert.Equal(t, model.GroupPaid, f.repo.groups[f.group.ID].Status)
	assert.Len(t, f.events.types, 2)

	// lần hai không có order PENDING nào nữa
	confirmed, err = f.svc.ConfirmPaidTx(context.Background(), nil, f.group.ID, paidAt)
	require.NoError(t, err)
	assert.Empty(t, confirmed)
}

func TestConfirmPaidTx_CancelledGroupStaysCancelled(t *testing.T) {
	f := newFixture(t, model.PaymentMethodVNPay, 1)
	require.NoError(t, f.svc.CancelGroupTx(context.Background(), nil, f.group.ID, inventoryModel.ReasonExpired, "hết hạn"))

	confirmed, err := f.svc.ConfirmPaidTx(context.Background(), nil, f.group.ID, time.Now())
	require.NoError(t, err)
	assert.Empty(t, confirmed)
	assert.Equal(t, model.GroupCancelled, f.repo.groups[f.group.ID].Status)
}

func TestCancel_UnpaidRestocksWithoutDebit(t *testing.T) {
	f := newFixture(t, model.PaymentMethodVNPay, 1)

	o, err := f.svc.Cancel(context.Background(), buyerIdentity(f.buyer), f.orders[0].ID, "Đổi ý không mua nữa")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, o.Status)
	assert.Equal(t, model.PaymentFailed, o.PaymentStatus)

	require.Len(t, f.stock.calls, 1)
	assert.Equal(t, inventoryModel.ReasonCancellation, f.stock.calls[0].reason)
	assert.Equal(t, 2, f.stock.calls[0].lines[0].Quantity)
	assert.Empty(t, f.ledger.debits)
	assert.Equal(t, model.GroupCancelled, f.repo.groups[f.group.ID].Status)
}

func TestCancel_PartialUnpaidOnlineGroupRejected(t *testing.T) {
	f := newFixture(t, model.PaymentMethodVNPay, 2)
	ctx := context.Background()

	_, err := f.svc.Cancel(ctx, buyerIdentity(f.buyer), f.orders[0].ID, "Đổi ý một shop")
	assert.ErrorIs(t, err, model.ErrPartialCancelUnpaid)
	assert.True(t, apperror.IsKind(err, apperror.KindState))

	_, err = f.svc.UpdateStatus(ctx, admin, f.orders[1].ID, model.StatusCancelled, "Hết hàng")
	assert.ErrorIs(t, err, model.ErrPartialCancelUnpaid)

	assert.Empty(t, f.stock.calls)
	for i := range f.orders {
		assert.Equal(t, model.StatusPending, f.order(i).Status)
		assert.Equal(t, model.PaymentPending, f.order(i).PaymentStatus)
	}

	// sau khi thanh toán thì hủy lẻ bình thường
	_, err = f.svc.ConfirmPaidTx(ctx, nil, f.group.ID, time.Now())
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, buyerIdentity(f.buyer), f.orders[0].ID, "Đổi ý một shop")
	require.NoError(t, err)
	require.Len(t, f.ledger.debits, 1)
	assert.Equal(t, f.orders[0].ID, f.ledger.debits[0].refID)
}

func TestCancel_PartialCODGroupAllowed(t *testing.T) {
	f := newFixture(t, model.PaymentMethodCOD, 2)

	_, err := f.svc.Cancel(context.Background(), buyerIdentity(f.buyer), f.orders[0].ID, "Đổi ý")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, f.order(0).Status)
	assert.Equal(t, model.GroupPending, f.repo.groups[f.group.ID].Status)
}

func TestConfirmPaidTx_SettlesOrderThatLeftPending(t *testing.T) {
	f := newFixture(t, model.PaymentMethodVNPay, 2)
	// dữ liệu cũ: đơn đã được đẩy sang PROCESSING trước khi tiền về
	f.repo.orders[f.orders[0].ID].Status = model.StatusProcessing
	historyBefore := len(f.repo.history)

	settled, err := f.svc.ConfirmPaidTx(context.Background(), nil, f.group.ID, time.Now())
	require.NoError(t, err)
	assert.Len(t, settled, 2)

	for i := range f.orders {
		assert.Equal(t, model.StatusProcessing, f.order(i).Status)
		assert.Equal(t, model.PaymentPaid, f.order(i).PaymentStatus)
		assert.NotNil(t, f.order(i).PaidAt)
	}
	assert.Equal(t, model.GroupPaid, f.repo.groups[f.group.ID].Status)
	assert.Equal(t, model.PaymentPaid, f.repo.groups[f.group.ID].PaymentStatus)
	// chỉ order còn PENDING mới có transition
	assert.Len(t, f.repo.history, historyBefore+1)

	// DELIVERED của đơn VNPay đã trả không credit thêm lần nữa
	for _, to := range []model.OrderStatus{model.StatusShipped, model.StatusDelivered} {
		_, err := f.svc.UpdateStatus(context.Background(), admin, f.orders[0].ID, to, "")
		require.NoError(t, err)
	}
	assert.Empty(t, f.ledger.credits)
}

func TestCancel_PaidDebitsReversal(t *testing.T) {
	f := newFixture(t, model.PaymentMethodVNPay, 1)
	_, err := f.svc.ConfirmPaidTx(context.Background(), nil, f.group.ID, time.Now())
	require.NoError(t, err)

	o, err := f.svc.Cancel(context.Background(), buyerIdentity(f.buyer), f.orders[0].ID, "Giao chậm quá")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRefunded, o.PaymentStatus)
	require.Len(t, f.ledger.debits, 1)
	assert.Equal(t, walletModel.RefOrderReversal, f.ledger.debits[0].ref)
	assert.Equal(t, o.ID, f.ledger.debits[0].refID)
	assert.Equal(t, model.PaymentRefunded, f.repo.groups[f.group.ID].PaymentStatus)
}

func TestCancel_ReversalFailureAborts(t *testing.T) {
	f := newFixture(t, model.PaymentMethodVNPay, 1)
	_, err := f.svc.ConfirmPaidTx(context.Background(), nil, f.group.ID, time.Now())
	require.NoError(t, err)
	f.ledger.debitErr = walletModel.ErrInsufficientBalance

	_, err = f.svc.Cancel(context.Background(), buyerIdentity(f.buyer), f.orders[0].ID, "Giao chậm quá")
	assert.ErrorIs(t, err, walletModel.ErrInsufficientBalance)
	assert.Equal(t, model.StatusProcessing, f.order(0).Status)
}

func TestCancel_Rejections(t *testing.T) {
	f := newFixture(t, model.PaymentMethodVNPay, 1)

	_, err := f.svc.Cancel(context.Background(), buyerIdentity(uuid.New()), f.orders[0].ID, "không phải của tôi")
	assert.ErrorIs(t, err, model.ErrOrderNotFound)

	_, err = f.svc.Cancel(context.Background(), buyerIdentity(f.buyer), uuid.New(), "không tồn tại")
	assert.ErrorIs(t, err, model.ErrOrderNotFound)

	f.repo.orders[f.orders[0].ID].Status = model.StatusShipped
	_, err = f.svc.Cancel(context.Background(), buyerIdentity(f.buyer), f.orders[0].ID, "đã giao đi rồi")
	assert.ErrorIs(t, err, model.ErrOrderNotCancellable)
	assert.Empty(t, f.stock.calls)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("admin only", func(t *testing.T) {
		f := newFixture(t, model.PaymentMethodCOD, 1)
		_, err := f.svc.UpdateStatus(ctx, buyerIdentity(f.buyer), f.orders[0].ID, model.StatusProcessing, "")
		assert.ErrorIs(t, err, model.ErrAdminRequired)
	})

	t.Run("disallowed move", func(t *testing.T) {
		f := newFixture(t, model.PaymentMethodCOD, 1)
		_, err := f.svc.UpdateStatus(ctx, admin, f.orders[0].ID, model.StatusDelivered, "")
		assert.ErrorIs(t, err, model.ErrInvalidTransition)
		assert.True(t, apperror.IsKind(err, apperror.KindState))
		assert.Equal(t, model.StatusPending, f.order(0).Status)
	})

	t.Run("unpaid online order waits for payment", func(t *testing.T) {
		f := newFixture(t, model.PaymentMethodVNPay, 1)
		_, err := f.svc.UpdateStatus(ctx, admin, f.orders[0].ID, model.StatusProcessing, "")
		assert.ErrorIs(t, err, model.ErrAwaitingPayment)
		assert.Equal(t, model.StatusPending, f.order(0).Status)
		assert.Len(t, f.repo.history, 1)

		// settlement vẫn trả đủ cho seller qua reconciler
		settled, err := f.svc.ConfirmPaidTx(ctx, nil, f.group.ID, time.Now())
		require.NoError(t, err)
		require.Len(t, settled, 1)
		assert.Equal(t, f.orders[0].SellerID, settled[0].SellerID)
	})

	t.Run("cod delivered credits seller then refund debits", func(t *testing.T) {
		f := newFixture(t, model.PaymentMethodCOD, 1)
		_, err := f.svc.ConfirmCODTx(ctx, nil, f.group.ID)
		require.NoError(t, err)
		assert.Empty(t, f.ledger.credits)

		for _, to := range []model.OrderStatus{model.StatusShipped, model.StatusDelivered} {
			_, err := f.svc.UpdateStatus(ctx, admin, f.orders[0].ID, to, "")
			require.NoError(t, err)
		}
		require.Len(t, f.ledger.credits, 1)
		assert.Equal(t, walletModel.RefOrderSettlement, f.ledger.credits[0].ref)
		assert.Equal(t, model.PaymentPaid, f.order(0).PaymentStatus)

		_, err = f.svc.UpdateStatus(ctx, admin, f.orders[0].ID, model.StatusRefunded, "Khách trả hàng")
		require.NoError(t, err)
		require.Len(t, f.ledger.debits, 1)
		assert.Equal(t, walletModel.RefOrderRefund, f.ledger.debits[0].ref)
		assert.Equal(t, model.PaymentRefunded, f.order(0).PaymentStatus)
	})

	t.Run("admin cancel restocks", func(t *testing.T) {
		f := newFixture(t, model.PaymentMethodCOD, 1)
		_, err := f.svc.UpdateStatus(ctx, admin, f.orders[0].ID, model.StatusCancelled, "Hết hàng")
		require.NoError(t, err)
		assert.Len(t, f.stock.calls, 1)
		assert.Equal(t, model.GroupCancelled, f.repo.groups[f.group.ID].Status)
	})
}

func TestCancelGroupTx_SingleRestockPass(t *testing.T) {
	f := newFixture(t, model.PaymentMethodVNPay, 3)

	err := f.svc.CancelGroupTx(context.Background(), nil, f.group.ID, inventoryModel.ReasonExpired, "Hết hạn thanh toán")
	require.NoError(t, err)

	require.Len(t, f.stock.calls, 1)
	assert.Len(t, f.stock.calls[0].lines, 3)
	assert.Equal(t, f.group.ID, f.stock.calls[0].ref)
	assert.Equal(t, inventoryModel.ReasonExpired, f.stock.calls[0].reason)
	for i := range f.orders {
		assert.Equal(t, model.StatusCancelled, f.order(i).Status)
	}
	assert.Equal(t, model.GroupCancelled, f.repo.groups[f.group.ID].Status)
	assert.Equal(t, model.PaymentFailed, f.repo.groups[f.group.ID].PaymentStatus)
}

func TestGetOrder_Visibility(t *testing.T) {
	f := newFixture(t, model.PaymentMethodVNPay, 1)
	ctx := context.Background()

	detail, err := f.svc.GetOrder(ctx, buyerIdentity(f.buyer), f.orders[0].ID)
	require.NoError(t, err)
	assert.Len(t, detail.Order.Items, 1)
	assert.Len(t, detail.History, 1)

	seller := middleware.Identity{UserID: f.orders[0].SellerID, Role: middleware.RoleSeller}
	_, err = f.svc.GetOrder(ctx, seller, f.orders[0].ID)
	require.NoError(t, err)

	_, err = f.svc.GetOrder(ctx, buyerIdentity(uuid.New()), f.orders[0].ID)
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
}
