package model

import (
	"bytes"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookStock is the slice of the books row the stock ledger cares about.
type BookStock struct {
	BookID        uuid.UUID
	ShopID        uuid.UUID
	Title         string
	Price         decimal.Decimal
	StockQuantity int
	IsActive      bool
}

// StockLine is one requested quantity change for a book.
type StockLine struct {
	BookID   uuid.UUID `json:"book_id"`
	Quantity int       `json:"quantity"`
}

// Shortage describes a line that cannot be fulfilled.
type Shortage struct {
	BookID    uuid.UUID `json:"book_id"`
	Title     string    `json:"title,omitempty"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

type MovementReason string

const (
	ReasonCheckout     MovementReason = "CHECKOUT"
	ReasonCancellation MovementReason = "ORDER_CANCELLED"
	ReasonExpired      MovementReason = "PAYMENT_EXPIRED"
	ReasonFailed       MovementReason = "PAYMENT_FAILED"
)

// Movement is one row in stock_movements (audit only).
type Movement struct {
	ID          uuid.UUID
	BookID      uuid.UUID
	Delta       int
	StockAfter  int
	Reason      MovementReason
	ReferenceID uuid.UUID
	CreatedAt   time.Time
}

// NormalizeLines merges duplicate books and sorts by ascending book id.
// Every caller that locks book rows goes through this so concurrent
// transactions always acquire locks in the same order.
func NormalizeLines(lines []StockLine) []StockLine {
	merged := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		merged[l.BookID] += l.Quantity
	}
	out := make([]StockLine, 0, len(merged))
	for id, qty := range merged {
		out = append(out, StockLine{BookID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].BookID[:], out[j].BookID[:]) < 0
	})
	return out
}
