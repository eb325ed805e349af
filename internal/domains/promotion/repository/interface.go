package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"bookstore-fulfillment/internal/domains/promotion/model"
)

type Repository interface {
	// FindByCode returns nil, nil when the code does not exist.
	FindByCode(ctx context.Context, code string) (*model.Promotion, error)
	CountUserUsage(ctx context.Context, promotionID, userID uuid.UUID) (int, error)

	// Tx-scoped, used while recording a redemption.
	LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Promotion, error)
	CountUserUsageTx(ctx context.Context, tx pgx.Tx, promotionID, userID uuid.UUID) (int, error)
	InsertUsage(ctx context.Context, tx pgx.Tx, usage *model.PromotionUsage) error
	IncrementUsageCount(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}
