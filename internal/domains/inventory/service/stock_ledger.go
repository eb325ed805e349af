package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"bookstore-fulfillment/internal/domains/inventory/model"
	"bookstore-fulfillment/internal/domains/inventory/repository"
)

// StockLedger owns books.stock_quantity. Every mutation locks the affected
// rows in ascending book id order inside the caller's transaction.
type StockLedger struct {
	repo repository.Repository
}

func NewStockLedger(repo repository.Repository) *StockLedger {
	return &StockLedger{repo: repo}
}

// Check validates lines against current stock without locking.
// Used for fast feedback before the checkout transaction starts.
func (s *StockLedger) Check(ctx context.Context, lines []model.StockLine) ([]model.Shortage, error) {
	lines = model.NormalizeLines(lines)
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.BookID
	}
	stocks, err := s.repo.GetStocks(ctx, ids)
	if err != nil {
		return nil, err
	}

	var shortages []model.Shortage
	for _, l := range lines {
		b, ok := stocks[l.BookID]
		if !ok || !b.IsActive {
			return nil, model.ErrBookNotFound.WithDetails(l.BookID)
		}
		if b.StockQuantity < l.Quantity {
			shortages = append(shortages, model.Shortage{
				BookID: l.BookID, Title: b.Title, Requested: l.Quantity, Available: b.StockQuantity,
			})
		}
	}
	return shortages, nil
}

// DecrementTx locks every book, verifies all lines and only then decrements.
// Any shortage aborts before the first write and lists every offending line.
func (s *StockLedger) DecrementTx(ctx context.Context, tx pgx.Tx, lines []model.StockLine, referenceID uuid.UUID) error {
	lines = model.NormalizeLines(lines)
	if err := validateLines(lines); err != nil {
		return err
	}

	var shortages []model.Shortage
	for _, l := range lines {
		b, err := s.repo.LockBook(ctx, tx, l.BookID)
		if err != nil {
			return err
		}
		if b == nil || !b.IsActive {
			return model.ErrBookNotFound.WithDetails(l.BookID)
		}
		if b.StockQuantity < l.Quantity {
			shortages = append(shortages, model.Shortage{
				BookID: l.BookID, Title: b.Title, Requested: l.Quantity, Available: b.StockQuantity,
			})
		}
	}
	if len(shortages) > 0 {
		return model.ErrInsufficientStock.WithDetails(shortages)
	}

	return s.apply(ctx, tx, lines, -1, referenceID, model.ReasonCheckout)
}

// RestockTx returns quantities to stock (cancellation, expiry, failed payment).
func (s *StockLedger) RestockTx(ctx context.Context, tx pgx.Tx, lines []model.StockLine, referenceID uuid.UUID, reason model.MovementReason) error {
	lines = model.NormalizeLines(lines)
	if err := validateLines(lines); err != nil {
		return err
	}

	for _, l := range lines {
		b, err := s.repo.LockBook(ctx, tx, l.BookID)
		if err != nil {
			return err
		}
		if b == nil {
			return model.ErrBookNotFound.WithDetails(l.BookID)
		}
	}
	return s.apply(ctx, tx, lines, 1, referenceID, reason)
}

func (s *StockLedger) apply(ctx context.Context, tx pgx.Tx, lines []model.StockLine, sign int, referenceID uuid.UUID, reason model.MovementReason) error {
	for _, l := range lines {
		delta := sign * l.Quantity
		after, err := s.repo.AdjustStock(ctx, tx, l.BookID, delta)
		if err != nil {
			return err
		}
		if err := s.repo.InsertMovement(ctx, tx, &model.Movement{
			ID:          uuid.New(),
			BookID:      l.BookID,
			Delta:       delta,
			StockAfter:  after,
			Reason:      reason,
			ReferenceID: referenceID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func validateLines(lines []model.StockLine) error {
	for _, l := range lines {
		if l.Quantity <= 0 {
			return model.ErrInvalidQuantity.WithDetails(l.BookID)
		}
	}
	return nil
}
