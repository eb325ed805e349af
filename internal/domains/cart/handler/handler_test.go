package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore-fulfillment/internal/domains/cart/model"
	"bookstore-fulfillment/internal/shared/middleware"
)

type stubLoader struct {
	groups []model.ShopGroup
	err    error
}

func (s *stubLoader) Load(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]model.ShopGroup, error) {
	return s.groups, s.err
}

func newRouter(l Loader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		middleware.SetIdentity(c, middleware.Identity{UserID: uuid.New(), Role: middleware.RoleUser})
		c.Next()
	})
	NewCartHandler(l).RegisterRoutes(api)
	return r
}

func TestPreview_GroupsByShop(t *testing.T) {
	shopA, shopB := uuid.New(), uuid.New()
	l := &stubLoader{groups: []model.ShopGroup{
		{ShopID: shopA, Items: []model.SelectedItem{
			{BookID: uuid.New(), UnitPrice: decimal.NewFromInt(50000), Quantity: 2},
			{BookID: uuid.New(), UnitPrice: decimal.NewFromInt(20000), Quantity: 1},
		}},
		{ShopID: shopB, Items: []model.SelectedItem{
			{BookID: uuid.New(), UnitPrice: decimal.NewFromInt(99000), Quantity: 1},
		}},
	}}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/preview", strings.NewReader(`{"cart_item_ids":["`+uuid.NewString()+`"]}`))
	newRouter(l).ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data model.PreviewResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Shops, 2)
	assert.True(t, decimal.NewFromInt(120000).Equal(body.Data.Shops[0].Subtotal))
	assert.True(t, decimal.NewFromInt(219000).Equal(body.Data.Subtotal))
	assert.Equal(t, 4, body.Data.ItemCount)
}

func TestPreview_UnknownItemIs400(t *testing.T) {
	l := &stubLoader{err: model.ErrCartItemNotFound}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/preview", strings.NewReader(`{"cart_item_ids":["`+uuid.NewString()+`"]}`))
	newRouter(l).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "CART_ITEM_NOT_FOUND")
}
