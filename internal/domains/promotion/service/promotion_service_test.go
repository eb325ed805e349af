package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore-fulfillment/internal/domains/promotion/model"
)

type fakeRepo struct {
	promos map[string]*model.Promotion
	usage  map[uuid.UUID]map[uuid.UUID]int
	usages []model.PromotionUsage
}

func newFakeRepo(promos ...*model.Promotion) *fakeRepo {
	r := &fakeRepo{promos: map[string]*model.Promotion{}, usage: map[uuid.UUID]map[uuid.UUID]int{}}
	for _, p := range promos {
		r.promos[p.Code] = p
	}
	return r
}

func (r *fakeRepo) FindByCode(ctx context.Context, code string) (*model.Promotion, error) {
	p, ok := r.promos[code]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) CountUserUsage(ctx context.Context, promotionID, userID uuid.UUID) (int, error) {
	return r.usage[promotionID][userID], nil
}

func (r *fakeRepo) LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Promotion, error) {
	for _, p := range r.promos {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) CountUserUsageTx(ctx context.Context, tx pgx.Tx, promotionID, userID uuid.UUID) (int, error) {
	return r.CountUserUsage(ctx, promotionID, userID)
}

func (r *fakeRepo) InsertUsage(ctx context.Context, tx pgx.Tx, u *model.PromotionUsage) error {
	for _, existing := range r.usages {
		if existing.PromotionID == u.PromotionID && existing.UserID == u.UserID && existing.GroupOrderID == u.GroupOrderID {
			return model.ErrPromotionDuplicateUsage
		}
	}
	if r.usage[u.PromotionID] == nil {
		r.usage[u.PromotionID] = map[uuid.UUID]int{}
	}
	r.usage[u.PromotionID][u.UserID]++
	r.usages = append(r.usages, *u)
	return nil
}

func (r *fakeRepo) IncrementUsageCount(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	for _, p := range r.promos {
		if p.ID == id {
			p.CurrentUsageCount++
		}
	}
	return nil
}

var fixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func save10() *model.Promotion {
	return &model.Promotion{
		ID:                uuid.New(),
		Code:              "SAVE10",
		Name:              "Giảm 10%",
		DiscountType:      model.DiscountTypePercentage,
		DiscountValue:     dec(10),
		MaxDiscountAmount: decPtr(50000),
		MinOrderValue:     decPtr(100000),
		UsageLimitPerUser: intPtr(1),
		TotalUsageLimit:   intPtr(100),
		IsActive:          true,
		StartDate:         fixedNow.Add(-24 * time.Hour),
		EndDate:           fixedNow.Add(24 * time.Hour),
	}
}

func newEngine(repo *fakeRepo) *Engine {
	e := NewEngine(repo)
	e.now = func() time.Time { return fixedNow }
	return e
}

func TestValidate_CappedPercentage(t *testing.T) {
	e := newEngine(newFakeRepo(save10()))

	res, err := e.Validate(context.Background(), " save10 ", uuid.New(), dec(800000))
	require.NoError(t, err)
	assert.True(t, dec(50000).Equal(res.Discount))
	assert.True(t, dec(750000).Equal(res.ToResponse().TotalAfterDiscount))
}

func TestValidate_Rejections(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name     string
		mutate   func(p *model.Promotion, r *fakeRepo)
		code     string
		subtotal int64
		want     error
	}{
		{name: "unknown code", code: "NOPE", subtotal: 200000, want: model.ErrPromotionNotFound},
		{name: "inactive", mutate: func(p *model.Promotion, _ *fakeRepo) { p.IsActive = false }, want: model.ErrPromotionInactive},
		{name: "not started", mutate: func(p *model.Promotion, _ *fakeRepo) { p.StartDate = fixedNow.Add(time.Hour) }, want: model.ErrPromotionNotStarted},
		{name: "ended", mutate: func(p *model.Promotion, _ *fakeRepo) { p.EndDate = fixedNow }, want: model.ErrPromotionExpired},
		{
			name: "per user limit",
			mutate: func(p *model.Promotion, r *fakeRepo) {
				r.usage[p.ID] = map[uuid.UUID]int{userID: 1}
			},
			want: model.ErrPromotionUserLimit,
		},
		{name: "global limit", mutate: func(p *model.Promotion, _ *fakeRepo) { p.CurrentUsageCount = 100 }, want: model.ErrPromotionUsageExhausted},
		{name: "min order", subtotal: 99999, want: model.ErrPromotionMinOrderNotMet},
		{
			name: "inactive wins over expired",
			mutate: func(p *model.Promotion, _ *fakeRepo) {
				p.IsActive = false
				p.EndDate = fixedNow.Add(-time.Hour)
			},
			want: model.ErrPromotionInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := save10()
			repo := newFakeRepo(p)
			if tt.mutate != nil {
				tt.mutate(p, repo)
			}
			code := tt.code
			if code == "" {
				code = "SAVE10"
			}
			subtotal := tt.subtotal
			if subtotal == 0 {
				subtotal = 200000
			}

			_, err := newEngine(repo).Validate(context.Background(), code, userID, dec(subtotal))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidate_NegativeSubtotal(t *testing.T) {
	_, err := newEngine(newFakeRepo(save10())).Validate(context.Background(), "SAVE10", uuid.New(), dec(-1))
	assert.ErrorIs(t, err, model.ErrInvalidSubtotal)
}

func TestRecordUsageTx(t *testing.T) {
	p := save10()
	repo := newFakeRepo(p)
	e := newEngine(repo)
	userID := uuid.New()

	err := e.RecordUsageTx(context.Background(), nil, p.ID, userID, uuid.New(), dec(800000), dec(50000))
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentUsageCount)
	require.Len(t, repo.usages, 1)
	assert.True(t, dec(50000).Equal(repo.usages[0].DiscountAmount))

	// limit 1 lượt / user, lần thứ hai phải bị từ chối dưới lock
	err = e.RecordUsageTx(context.Background(), nil, p.ID, userID, uuid.New(), dec(800000), dec(50000))
	assert.ErrorIs(t, err, model.ErrPromotionUserLimit)
	assert.Equal(t, 1, p.CurrentUsageCount)
}
