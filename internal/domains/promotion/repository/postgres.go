package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookstore-fulfillment/internal/domains/promotion/model"
	"bookstore-fulfillment/pkg/database"
)

const uniqueUsageConstraint = "uq_promotion_usage_promo_user_group"

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectPromotion = `
	SELECT id, code, name, discount_type, discount_value, max_discount_amount,
	       min_order_value, usage_limit_per_user, total_usage_limit, current_usage_count,
	       is_active, start_date, end_date, created_at, updated_at
	FROM promotions`

func scanPromotion(row pgx.Row) (*model.Promotion, error) {
	var p model.Promotion
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.DiscountType, &p.DiscountValue, &p.MaxDiscountAmount,
		&p.MinOrderValue, &p.UsageLimitPerUser, &p.TotalUsageLimit, &p.CurrentUsageCount,
		&p.IsActive, &p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByCode đọc trực tiếp từ primary, không cache: usage count phải là giá trị mới nhất
func (r *PostgresRepository) FindByCode(ctx context.Context, code string) (*model.Promotion, error) {
	p, err := scanPromotion(r.db.QueryRow(ctx, selectPromotion+` WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find promotion by code: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) CountUserUsage(ctx context.Context, promotionID, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM promotion_usage WHERE promotion_id = $1 AND user_id = $2`,
		promotionID, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("get user usage count: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Promotion, error) {
	p, err := scanPromotion(tx.QueryRow(ctx, selectPromotion+` WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock promotion: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) CountUserUsageTx(ctx context.Context, tx pgx.Tx, promotionID, userID uuid.UUID) (int, error) {
	var count int
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM promotion_usage WHERE promotion_id = $1 AND user_id = $2`,
		promotionID, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("get user usage count: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) InsertUsage(ctx context.Context, tx pgx.Tx, usage *model.PromotionUsage) error {
	if usage.ID == uuid.Nil {
		usage.ID = uuid.New()
	}

	err := tx.QueryRow(ctx, `
		INSERT INTO promotion_usage (id, promotion_id, user_id, group_order_id, discount_amount, used_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING used_at`,
		usage.ID, usage.PromotionID, usage.UserID, usage.GroupOrderID, usage.DiscountAmount,
	).Scan(&usage.UsedAt)
	if err != nil {
		if database.IsUniqueViolation(err, uniqueUsageConstraint) {
			return model.ErrPromotionDuplicateUsage
		}
		return fmt.Errorf("create promotion usage: %w", err)
	}
	return nil
}

func (r *PostgresRepository) IncrementUsageCount(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE promotions SET current_usage_count = current_usage_count + 1, updated_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("increment promotion usage: %w", err)
	}
	return nil
}
