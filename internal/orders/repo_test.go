package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kevmwangi/shoplink-backend/pkg/db/models"
	"github.com/kevmwangi/shoplink-backend/pkg/enums"
	"github.com/kevmwangi/shoplink-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL,
  order_type TEXT NOT NULL,
  shop_id TEXT,
  warehouse_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  total_amount NUMERIC NOT NULL DEFAULT 0,
  payment_method TEXT NOT NULL DEFAULT 'cash_on_delivery',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_reference TEXT,
  delivery_address_id TEXT,
  offline_order_delivery_date DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	items := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  shop_inventory_id TEXT,
  warehouse_inventory_id TEXT,
  source_warehouse_inventory_id TEXT,
  quantity INTEGER NOT NULL,
  price_at_purchase NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(items).Error)
	return db
}

func seedOrder(t *testing.T, repo Repository, buyerID uuid.UUID, shopID uuid.UUID, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:            uuid.New(),
		BuyerID:       buyerID,
		OrderType:     enums.OrderTypeRetail,
		ShopID:        &shopID,
		Status:        enums.OrderStatusPending,
		TotalAmount:   decimal.RequireFromString("20.00"),
		PaymentMethod: enums.PaymentMethodCashOnDelivery,
		PaymentStatus: enums.PaymentStatusPending,
		CreatedAt:     createdAt,
	}
	_, err := repo.CreateOrder(context.Background(), order)
	require.NoError(t, err)
	return order
}

func TestCreateAndFindOrderWithItems(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	shopID := uuid.New()
	listingID := uuid.New()
	order := seedOrder(t, repo, uuid.New(), shopID, time.Now())

	items := []models.OrderItem{
		{
			OrderID:         order.ID,
			ShopInventoryID: &listingID,
			Quantity:        2,
			PriceAtPurchase: decimal.RequireFromString("10.00"),
			Status:          enums.OrderItemStatusPending,
		},
	}
	require.NoError(t, repo.CreateOrderItems(ctx, items))

	found, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	require.Equal(t, 2, found.Items[0].Quantity)
	require.True(t, found.TotalAmount.Equal(decimal.RequireFromString("20.00")))
	require.Equal(t, "20.00", found.Items[0].LineTotal().StringFixed(2))
}

func TestUpdateStatuses(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, repo, uuid.New(), uuid.New(), time.Now())
	listingID := uuid.New()
	items := []models.OrderItem{{
		OrderID:         order.ID,
		ShopInventoryID: &listingID,
		Quantity:        1,
		PriceAtPurchase: decimal.RequireFromString("5.00"),
		Status:          enums.OrderItemStatusPending,
	}}
	require.NoError(t, repo.CreateOrderItems(ctx, items))

	require.NoError(t, repo.UpdateOrderItemStatus(ctx, items[0].ID, enums.OrderItemStatusProcessed))
	require.NoError(t, repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusProcessed))

	item, err := repo.FindOrderItem(ctx, items[0].ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderItemStatusProcessed, item.Status)

	found, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusProcessed, found.Status)
}

func TestListBuyerOrdersPagination(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	buyerID := uuid.New()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	for i := 0; i < 5; i++ {
		seedOrder(t, repo, buyerID, uuid.New(), base.Add(time.Duration(i)*time.Minute))
	}
	// Another buyer's order must not leak into the listing.
	seedOrder(t, repo, uuid.New(), uuid.New(), base.Add(time.Hour))

	page1, err := repo.ListBuyerOrders(ctx, buyerID, pagination.Params{Limit: 3}, BuyerOrderFilters{})
	require.NoError(t, err)
	require.Len(t, page1.Orders, 3)
	require.NotEmpty(t, page1.NextCursor)
	// Newest first.
	require.True(t, page1.Orders[0].CreatedAt.After(page1.Orders[2].CreatedAt))

	page2, err := repo.ListBuyerOrders(ctx, buyerID, pagination.Params{Limit: 3, Cursor: page1.NextCursor}, BuyerOrderFilters{})
	require.NoError(t, err)
	require.Len(t, page2.Orders, 2)
	require.Empty(t, page2.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, o := range append(page1.Orders, page2.Orders...) {
		require.False(t, seen[o.ID], "order repeated across pages")
		seen[o.ID] = true
		require.Equal(t, buyerID, o.BuyerID)
	}
}

func TestListBuyerOrdersStatusFilter(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	buyerID := uuid.New()
	shipped := seedOrder(t, repo, buyerID, uuid.New(), time.Now())
	seedOrder(t, repo, buyerID, uuid.New(), time.Now())
	require.NoError(t, repo.UpdateOrderStatus(ctx, shipped.ID, enums.OrderStatusShipped))

	status := enums.OrderStatusShipped
	list, err := repo.ListBuyerOrders(ctx, buyerID, pagination.Params{}, BuyerOrderFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	require.Equal(t, shipped.ID, list.Orders[0].ID)
}

func TestListSellerOrders(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	shopID := uuid.New()
	seedOrder(t, repo, uuid.New(), shopID, time.Now())
	seedOrder(t, repo, uuid.New(), uuid.New(), time.Now())

	list, err := repo.ListSellerOrders(ctx, SellerRef{ShopID: &shopID}, pagination.Params{}, SellerOrderFilters{})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	require.Equal(t, shopID, *list.Orders[0].ShopID)

	_, err = repo.ListSellerOrders(ctx, SellerRef{}, pagination.Params{}, SellerOrderFilters{})
	require.Error(t, err)
}
