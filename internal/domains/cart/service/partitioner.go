package service

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"bookstore-fulfillment/internal/domains/cart/model"
	"bookstore-fulfillment/internal/domains/cart/repository"
)

// Partitioner loads the buyer's selected cart items and splits them per shop.
type Partitioner struct {
	repo repository.Repository
}

func NewPartitioner(repo repository.Repository) *Partitioner {
	return &Partitioner{repo: repo}
}

// Load trả về các nhóm theo shop, sắp xếp tăng dần theo shop id.
// Mọi id không thuộc giỏ của buyer → ErrCartItemNotFound kèm danh sách id.
func (p *Partitioner) Load(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]model.ShopGroup, error) {
	ids := uniqueIDs(itemIDs)
	if len(ids) == 0 {
		return nil, model.ErrNoItemsSelected
	}

	items, err := p.repo.GetSelectedItems(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	found := make(map[uuid.UUID]struct{}, len(items))
	for _, it := range items {
		found[it.ItemID] = struct{}{}
	}
	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, model.ErrCartItemNotFound.WithDetails(map[string]interface{}{"item_ids": missing})
	}

	var inactive []uuid.UUID
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, model.ErrInvalidQuantity.WithDetails(map[string]interface{}{"item_id": it.ItemID})
		}
		if !it.IsActive {
			inactive = append(inactive, it.BookID)
		}
	}
	if len(inactive) > 0 {
		return nil, model.ErrBookUnavailable.WithDetails(map[string]interface{}{"book_ids": inactive})
	}

	groups := Partition(items)
	if len(groups) == 0 {
		return nil, model.ErrNoItemsSelected
	}
	return groups, nil
}

// DeleteConsumedTx xóa các cart item đã được đặt, gọi trong tx checkout.
func (p *Partitioner) DeleteConsumedTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, itemIDs []uuid.UUID) error {
	_, err := p.repo.DeleteItemsTx(ctx, tx, userID, uniqueIDs(itemIDs))
	return err
}

// Partition groups items by shop. Groups are ordered by shop id and items
// inside a group by book id, so allocation and locking are deterministic.
func Partition(items []model.SelectedItem) []model.ShopGroup {
	byShop := make(map[uuid.UUID]*model.ShopGroup)
	for _, it := range items {
		g, ok := byShop[it.ShopID]
		if !ok {
			g = &model.ShopGroup{ShopID: it.ShopID, SellerID: it.SellerID}
			byShop[it.ShopID] = g
		}
		g.Items = append(g.Items, it)
	}

	groups := make([]model.ShopGroup, 0, len(byShop))
	for _, g := range byShop {
		sort.Slice(g.Items, func(i, j int) bool {
			return bytes.Compare(g.Items[i].BookID[:], g.Items[j].BookID[:]) < 0
		})
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return bytes.Compare(groups[i].ShopID[:], groups[j].ShopID[:]) < 0
	})
	return groups
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
