package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart thuộc về một buyer đã đăng nhập
type Cart struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CartItem: shop_id/seller_id được denormalize từ books lúc thêm vào giỏ
type CartItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	CartID    uuid.UUID       `json:"cart_id" db:"cart_id"`
	BookID    uuid.UUID       `json:"book_id" db:"book_id"`
	ShopID    uuid.UUID       `json:"shop_id" db:"shop_id"`
	SellerID  uuid.UUID       `json:"seller_id" db:"seller_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// SelectedItem is a cart item joined with the book's current price, title and stock.
// Checkout always charges the current price, never the snapshot.
type SelectedItem struct {
	ItemID    uuid.UUID       `json:"item_id"`
	BookID    uuid.UUID       `json:"book_id"`
	ShopID    uuid.UUID       `json:"shop_id"`
	SellerID  uuid.UUID       `json:"seller_id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Stock     int             `json:"stock"`
	IsActive  bool            `json:"is_active"`
}

func (i SelectedItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ShopGroup gom các item của cùng một shop, sẽ thành một Order
type ShopGroup struct {
	ShopID   uuid.UUID      `json:"shop_id"`
	SellerID uuid.UUID      `json:"seller_id"`
	Items    []SelectedItem `json:"items"`
}

func (g ShopGroup) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range g.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// =====================================================
// PREVIEW
// =====================================================

// PreviewRequest is the body of POST /cart/preview.
type PreviewRequest struct {
	CartItemIDs []uuid.UUID `json:"cart_item_ids"`
}

// ShopPreview là một đơn con dự kiến sẽ được tạo lúc checkout.
type ShopPreview struct {
	ShopGroup
	Subtotal decimal.Decimal `json:"subtotal"`
}

type PreviewResponse struct {
	Shops     []ShopPreview   `json:"shops"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// NewPreview tổng hợp các nhóm shop cho màn hình giỏ hàng.
func NewPreview(groups []ShopGroup) *PreviewResponse {
	resp := &PreviewResponse{Shops: make([]ShopPreview, len(groups)), Subtotal: decimal.Zero}
	for i, g := range groups {
		sub := g.Subtotal()
		resp.Shops[i] = ShopPreview{ShopGroup: g, Subtotal: sub}
		resp.Subtotal = resp.Subtotal.Add(sub)
		for _, it := range g.Items {
			resp.ItemCount += it.Quantity
		}
	}
	return resp
}
