package settlement

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kevmwangi/shoplink-backend/internal/address"
	"github.com/kevmwangi/shoplink-backend/internal/cart"
	"github.com/kevmwangi/shoplink-backend/internal/fulfillment"
	"github.com/kevmwangi/shoplink-backend/internal/listings"
	"github.com/kevmwangi/shoplink-backend/internal/notifications"
	"github.com/kevmwangi/shoplink-backend/internal/orders"
	"github.com/kevmwangi/shoplink-backend/pkg/db/models"
	"github.com/kevmwangi/shoplink-backend/pkg/enums"
	pkgerrors "github.com/kevmwangi/shoplink-backend/pkg/errors"
	"github.com/kevmwangi/shoplink-backend/pkg/logger"
	"github.com/kevmwangi/shoplink-backend/pkg/metrics"
	"github.com/kevmwangi/shoplink-backend/pkg/outbox"
	"github.com/kevmwangi/shoplink-backend/pkg/payments"
)

type fakeVerifier struct {
	err   error
	calls []payments.VerifyParams
}

func (f *fakeVerifier) VerifyPayment(_ context.Context, params payments.VerifyParams) error {
	f.calls = append(f.calls, params)
	return f.err
}

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type testEnv struct {
	db       *gorm.DB
	svc      *Service
	verifier *fakeVerifier
	cartSvc  *cart.Service
	orders   orders.Repository
}

func newSettlementDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:settlement_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS shops (
  id TEXT PRIMARY KEY,
  owner_user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS warehouses (
  id TEXT PRIMARY KEY,
  owner_user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  location TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL,
  category TEXT NOT NULL,
  images TEXT,
  created_by TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS shop_inventories (
  id TEXT PRIMARY KEY,
  shop_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
  price NUMERIC NOT NULL DEFAULT 0,
  is_proxy_item INTEGER NOT NULL DEFAULT 0,
  warehouse_inventory_id TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (shop_id, product_id)
);
CREATE TABLE IF NOT EXISTS warehouse_inventories (
  id TEXT PRIMARY KEY,
  warehouse_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
  price NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (warehouse_id, product_id)
);
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  shop_inventory_id TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, shop_inventory_id)
);
CREATE TABLE IF NOT EXISTS addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  recipient TEXT NOT NULL,
  line1 TEXT NOT NULL,
  line2 TEXT,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  country TEXT NOT NULL,
  phone TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
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
);
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
);
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  order_id TEXT,
  read_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newSettlementDB(t)
	logg := logger.New(logger.Options{ServiceName: "settlement-test", Output: io.Discard})
	nop := zerolog.Nop()

	cartRepo := cart.NewRepository(db)
	orderRepo := orders.NewRepository(db)
	listingRepo := listings.NewRepository(db)
	tx := testTxRunner{db: db}

	listingSvc, err := listings.NewService(listingRepo, tx, &nop)
	require.NoError(t, err)
	cartSvc, err := cart.NewService(cartRepo, tx, listingRepo, &nop)
	require.NoError(t, err)
	addressSvc, err := address.NewService(db)
	require.NoError(t, err)
	notifySvc, err := notifications.NewService(notifications.NewRepository(db), &nop)
	require.NoError(t, err)

	verifier := &fakeVerifier{}
	svc, err := NewService(Config{
		CartRepo:  cartRepo,
		OrderRepo: orderRepo,
		Listings:  listingRepo,
		Proxy:     listingSvc,
		Addresses: addressSvc,
		Payments:  verifier,
		Outbox:    outbox.NewService(outbox.NewRepository(db), logg),
		Notify:    notifySvc,
		Tx:        tx,
		Metrics:   metrics.NewSettlementMetrics(prometheus.NewRegistry()),
		Logger:    logg,
	})
	require.NoError(t, err)

	return &testEnv{db: db, svc: svc, verifier: verifier, cartSvc: cartSvc, orders: orderRepo}
}

func (e *testEnv) seedAddress(t *testing.T, userID uuid.UUID) uuid.UUID {
	t.Helper()
	row := models.Address{
		ID:         uuid.New(),
		UserID:     userID,
		Recipient:  "Wanjiku Kamau",
		Line1:      "14 Riverside Drive",
		City:       "Nairobi",
		State:      "Nairobi County",
		PostalCode: "00100",
		Country:    "KE",
	}
	require.NoError(t, e.db.Create(&row).Error)
	return row.ID
}

func (e *testEnv) seedShopListing(t *testing.T, shopOwner uuid.UUID, price string, stock int) models.ShopInventory {
	t.Helper()
	shop := models.Shop{ID: uuid.New(), OwnerUserID: shopOwner, Name: "Corner Minimart"}
	require.NoError(t, e.db.Create(&shop).Error)
	product := models.Product{
		ID:          uuid.New(),
		Name:        "Long-life Milk 500ml",
		Description: "UHT milk, 500ml carton",
		Category:    enums.ProductCategoryGrocery,
		CreatedBy:   shopOwner,
	}
	require.NoError(t, e.db.Create(&product).Error)
	listing := models.ShopInventory{
		ID:            uuid.New(),
		ShopID:        shop.ID,
		ProductID:     product.ID,
		StockQuantity: stock,
		Price:         decimal.RequireFromString(price),
	}
	require.NoError(t, e.db.Create(&listing).Error)
	return listing
}

func (e *testEnv) seedWarehouseListing(t *testing.T, warehouseOwner uuid.UUID, price string, stock int) models.WarehouseInventory {
	t.Helper()
	warehouse := models.Warehouse{ID: uuid.New(), OwnerUserID: warehouseOwner, Name: "Eastlands Depot"}
	require.NoError(t, e.db.Create(&warehouse).Error)
	product := models.Product{
		ID:          uuid.New(),
		Name:        "Maize Flour 2kg",
		Description: "Fortified maize flour, 2kg bale unit",
		Category:    enums.ProductCategoryGrocery,
		CreatedBy:   warehouseOwner,
	}
	require.NoError(t, e.db.Create(&product).Error)
	listing := models.WarehouseInventory{
		ID:            uuid.New(),
		WarehouseID:   warehouse.ID,
		ProductID:     product.ID,
		StockQuantity: stock,
		Price:         decimal.RequireFromString(price),
	}
	require.NoError(t, e.db.Create(&listing).Error)
	return listing
}

func (e *testEnv) shopStock(t *testing.T, listingID uuid.UUID) int {
	t.Helper()
	var listing models.ShopInventory
	require.NoError(t, e.db.Where("id = ?", listingID).First(&listing).Error)
	return listing.StockQuantity
}

func (e *testEnv) warehouseStock(t *testing.T, listingID uuid.UUID) int {
	t.Helper()
	var listing models.WarehouseInventory
	require.NoError(t, e.db.Where("id = ?", listingID).First(&listing).Error)
	return listing.StockQuantity
}

func (e *testEnv) countRows(t *testing.T, model any) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(model).Count(&count).Error)
	return count
}

func TestSettleCartSingleShop(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	customerID := uuid.New()
	addressID := env.seedAddress(t, customerID)
	listing := env.seedShopListing(t, uuid.New(), "10.00", 5)
	require.NoError(t, env.cartSvc.AddItem(ctx, customerID, listing.ID, 2))

	result, err := env.svc.SettleCart(ctx, customerID, SettleCartParams{
		DeliveryAddressID: addressID,
		PaymentMethod:     enums.PaymentMethodCashOnDelivery,
	})
	require.NoError(t, err)
	require.Len(t, result.OrderIDs, 1)
	require.True(t, result.TotalAmount.Equal(decimal.RequireFromString("20.00")))

	order, err := env.orders.FindOrder(ctx, result.OrderIDs[0])
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	require.Equal(t, listing.ShopID, *order.ShopID)
	require.Len(t, order.Items, 1)
	require.Equal(t, enums.OrderItemStatusPending, order.Items[0].Status)
	require.True(t, order.Items[0].PriceAtPurchase.Equal(decimal.RequireFromString("10.00")))

	require.Equal(t, 3, env.shopStock(t, listing.ID))

	// Cart is emptied, and one event plus one notification were written.
	view, err := env.cartSvc.GetCart(ctx, customerID)
	require.NoError(t, err)
	require.Empty(t, view.Lines)
	require.EqualValues(t, 1, env.countRows(t, &models.OutboxEvent{}))
	require.EqualValues(t, 1, env.countRows(t, &models.Notification{}))
}

func TestSettleCartMultiShopAtomicity(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	customerID := uuid.New()
	addressID := env.seedAddress(t, customerID)
	plenty := env.seedShopListing(t, uuid.New(), "10.00", 50)
	scarce := env.seedShopListing(t, uuid.New(), "8.00", 3)

	require.NoError(t, env.cartSvc.AddItem(ctx, customerID, plenty.ID, 2))
	require.NoError(t, env.cartSvc.AddItem(ctx, customerID, scarce.ID, 3))

	// Drain the scarce listing after carting so only the in-transaction
	// check can catch it.
	require.NoError(t, env.db.Model(&models.ShopInventory{}).
		Where("id = ?", scarce.ID).
		Update("stock_quantity", 1).Error)

	_, err := env.svc.SettleCart(ctx, customerID, SettleCartParams{
		DeliveryAddressID: addressID,
		PaymentMethod:     enums.PaymentMethodCashOnDelivery,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	// Nothing settled: no orders, stock untouched, cart intact.
	require.Zero(t, env.countRows(t, &models.Order{}))
	require.Zero(t, env.countRows(t, &models.OutboxEvent{}))
	require.Equal(t, 50, env.shopStock(t, plenty.ID))
	require.Equal(t, 1, env.shopStock(t, scarce.ID))
	view, err := env.cartSvc.GetCart(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
}

func TestSettleCartSplitsPerShop(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	customerID := uuid.New()
	addressID := env.seedAddress(t, customerID)
	first := env.seedShopListing(t, uuid.New(), "10.00", 10)
	second := env.seedShopListing(t, uuid.New(), "4.50", 10)

	require.NoError(t, env.cartSvc.AddItem(ctx, customerID, first.ID, 1))
	require.NoError(t, env.cartSvc.AddItem(ctx, customerID, second.ID, 2))

	result, err := env.svc.SettleCart(ctx, customerID, SettleCartParams{
		DeliveryAddressID: addressID,
		PaymentMethod:     enums.PaymentMethodCashOnDelivery,
	})
	require.NoError(t, err)
	require.Len(t, result.OrderIDs, 2)
	require.True(t, result.TotalAmount.Equal(decimal.RequireFromString("19.00")))

	totals := map[string]bool{}
	for _, orderID := range result.OrderIDs {
		order, err := env.orders.FindOrder(ctx, orderID)
		require.NoError(t, err)
		totals[order.TotalAmount.StringFixed(2)] = true
	}
	require.True(t, totals["10.00"])
	require.True(t, totals["9.00"])
}

func TestSettleCartCardPayment(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	customerID := uuid.New()
	addressID := env.seedAddress(t, customerID)
	listing := env.seedShopListing(t, uuid.New(), "25.00", 4)
	require.NoError(t, env.cartSvc.AddItem(ctx, customerID, listing.ID, 2))

	// Verification failure settles nothing.
	env.verifier.err = pkgerrors.New(pkgerrors.CodePaymentVerification, "payment not completed")
	_, err := env.svc.SettleCart(ctx, customerID, SettleCartParams{
		DeliveryAddressID: addressID,
		PaymentMethod:     enums.PaymentMethodCard,
		PaymentReference:  "pay_abc123",
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentVerification))
	require.Zero(t, env.countRows(t, &models.Order{}))
	require.Equal(t, 4, env.shopStock(t, listing.ID))

	env.verifier.err = nil
	result, err := env.svc.SettleCart(ctx, customerID, SettleCartParams{
		DeliveryAddressID: addressID,
		PaymentMethod:     enums.PaymentMethodCard,
		PaymentReference:  "pay_abc123",
	})
	require.NoError(t, err)

	// The oracle saw the cart total before the transaction opened.
	require.Len(t, env.verifier.calls, 2)
	require.True(t, env.verifier.calls[1].Amount.Equal(decimal.RequireFromString("50.00")))

	order, err := env.orders.FindOrder(ctx, result.OrderIDs[0])
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusCompleted, order.PaymentStatus)
	require.NotNil(t, order.PaymentReference)
	require.Equal(t, "pay_abc123", *order.PaymentReference)
}

func TestSettleCartRejectsBadInput(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	customerID := uuid.New()
	addressID := env.seedAddress(t, customerID)

	// Empty cart.
	_, err := env.svc.SettleCart(ctx, customerID, SettleCartParams{
		DeliveryAddressID: addressID,
		PaymentMethod:     enums.PaymentMethodCashOnDelivery,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	// Someone else's address.
	listing := env.seedShopListing(t, uuid.New(), "10.00", 5)
	require.NoError(t, env.cartSvc.AddItem(ctx, customerID, listing.ID, 1))
	strangerAddress := env.seedAddress(t, uuid.New())
	_, err = env.svc.SettleCart(ctx, customerID, SettleCartParams{
		DeliveryAddressID: strangerAddress,
		PaymentMethod:     enums.PaymentMethodCashOnDelivery,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	// Card without a reference.
	_, err = env.svc.SettleCart(ctx, customerID, SettleCartParams{
		DeliveryAddressID: addressID,
		PaymentMethod:     enums.PaymentMethodCard,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSettleCartLastUnitContention(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	listing := env.seedShopListing(t, uuid.New(), "10.00", 1)

	first := uuid.New()
	second := uuid.New()
	firstAddress := env.seedAddress(t, first)
	secondAddress := env.seedAddress(t, second)
	require.NoError(t, env.cartSvc.AddItem(ctx, first, listing.ID, 1))
	require.NoError(t, env.cartSvc.AddItem(ctx, second, listing.ID, 1))

	_, err := env.svc.SettleCart(ctx, first, SettleCartParams{
		DeliveryAddressID: firstAddress,
		PaymentMethod:     enums.PaymentMethodCashOnDelivery,
	})
	require.NoError(t, err)

	_, err = env.svc.SettleCart(ctx, second, SettleCartParams{
		DeliveryAddressID: secondAddress,
		PaymentMethod:     enums.PaymentMethodCashOnDelivery,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	require.Equal(t, 0, env.shopStock(t, listing.ID))
	require.EqualValues(t, 1, env.countRows(t, &models.Order{}))
}

func TestPlaceWholesaleOrderProxy(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	retailerID := uuid.New()
	shop := models.Shop{ID: uuid.New(), OwnerUserID: retailerID, Name: "Retail Point"}
	require.NoError(t, env.db.Create(&shop).Error)
	source := env.seedWarehouseListing(t, uuid.New(), "5.00", 10)

	result, err := env.svc.PlaceWholesaleOrder(ctx, retailerID, WholesaleOrderParams{
		ShopID:               shop.ID,
		WarehouseInventoryID: source.ID,
		Quantity:             4,
		Proxy:                true,
		SellingPrice:         decimal.RequireFromString("8.50"),
		PaymentMethod:        enums.PaymentMethodCashOnDelivery,
	})
	require.NoError(t, err)
	require.Len(t, result.OrderIDs, 1)
	require.True(t, result.TotalAmount.Equal(decimal.RequireFromString("20.00")))

	require.Equal(t, 6, env.warehouseStock(t, source.ID))

	var proxyRow models.ShopInventory
	require.NoError(t, env.db.
		Where("shop_id = ? AND product_id = ?", shop.ID, source.ProductID).
		First(&proxyRow).Error)
	require.True(t, proxyRow.IsProxyItem)
	require.Equal(t, 4, proxyRow.StockQuantity)
	require.Equal(t, source.ID, *proxyRow.WarehouseInventoryID)
	require.True(t, proxyRow.Price.Equal(decimal.RequireFromString("8.50")))

	order, err := env.orders.FindOrder(ctx, result.OrderIDs[0])
	require.NoError(t, err)
	require.Equal(t, enums.OrderTypeWholesale, order.OrderType)
	require.Equal(t, enums.OrderStatusDelivered, order.Status)
	require.NotNil(t, order.OfflineOrderDeliveryDate)
	require.Equal(t, source.WarehouseID, *order.WarehouseID)
	require.Len(t, order.Items, 1)
	require.Equal(t, enums.OrderItemStatusDelivered, order.Items[0].Status)
	require.Equal(t, source.ID, *order.Items[0].WarehouseInventoryID)
}

func TestPlaceWholesaleOrderWithoutProxy(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	retailerID := uuid.New()
	shop := models.Shop{ID: uuid.New(), OwnerUserID: retailerID, Name: "Retail Point"}
	require.NoError(t, env.db.Create(&shop).Error)
	source := env.seedWarehouseListing(t, uuid.New(), "5.00", 10)

	result, err := env.svc.PlaceWholesaleOrder(ctx, retailerID, WholesaleOrderParams{
		ShopID:               shop.ID,
		WarehouseInventoryID: source.ID,
		Quantity:             3,
		PaymentMethod:        enums.PaymentMethodCashOnDelivery,
	})
	require.NoError(t, err)

	order, err := env.orders.FindOrder(ctx, result.OrderIDs[0])
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.Nil(t, order.OfflineOrderDeliveryDate)

	// No proxy row was created.
	var count int64
	require.NoError(t, env.db.Model(&models.ShopInventory{}).
		Where("shop_id = ?", shop.ID).Count(&count).Error)
	require.Zero(t, count)
	require.Equal(t, 7, env.warehouseStock(t, source.ID))
}

func TestPlaceWholesaleOrderGuards(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	retailerID := uuid.New()
	shop := models.Shop{ID: uuid.New(), OwnerUserID: retailerID, Name: "Retail Point"}
	require.NoError(t, env.db.Create(&shop).Error)
	source := env.seedWarehouseListing(t, uuid.New(), "5.00", 2)

	// Requesting more than the pool holds fails and debits nothing.
	_, err := env.svc.PlaceWholesaleOrder(ctx, retailerID, WholesaleOrderParams{
		ShopID:               shop.ID,
		WarehouseInventoryID: source.ID,
		Quantity:             3,
		PaymentMethod:        enums.PaymentMethodCashOnDelivery,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	require.Equal(t, 2, env.warehouseStock(t, source.ID))
	require.Zero(t, env.countRows(t, &models.Order{}))

	// Another retailer's shop is off limits.
	_, err = env.svc.PlaceWholesaleOrder(ctx, uuid.New(), WholesaleOrderParams{
		ShopID:               shop.ID,
		WarehouseInventoryID: source.ID,
		Quantity:             1,
		PaymentMethod:        enums.PaymentMethodCashOnDelivery,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = env.svc.PlaceWholesaleOrder(ctx, retailerID, WholesaleOrderParams{
		ShopID:               shop.ID,
		WarehouseInventoryID: source.ID,
		Quantity:             0,
		PaymentMethod:        enums.PaymentMethodCashOnDelivery,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSettleCancelResettleRestoresStock(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	customerID := uuid.New()
	addressID := env.seedAddress(t, customerID)
	listing := env.seedShopListing(t, uuid.New(), "10.00", 5)

	logg := logger.New(logger.Options{ServiceName: "settlement-test", Output: io.Discard})
	nop := zerolog.Nop()
	notifySvc, err := notifications.NewService(notifications.NewRepository(env.db), &nop)
	require.NoError(t, err)
	fulfillSvc, err := fulfillment.NewService(
		env.orders,
		listings.NewRepository(env.db),
		outbox.NewService(outbox.NewRepository(env.db), logg),
		notifySvc,
		testTxRunner{db: env.db},
		logg,
	)
	require.NoError(t, err)

	settle := func() *SettlementResult {
		require.NoError(t, env.cartSvc.AddItem(ctx, customerID, listing.ID, 2))
		result, err := env.svc.SettleCart(ctx, customerID, SettleCartParams{
			DeliveryAddressID: addressID,
			PaymentMethod:     enums.PaymentMethodCashOnDelivery,
		})
		require.NoError(t, err)
		require.Len(t, result.OrderIDs, 1)
		return result
	}

	first := settle()
	require.Equal(t, 3, env.shopStock(t, listing.ID))

	buyer := fulfillment.Actor{UserID: customerID, Role: enums.UserRoleCustomer}
	require.NoError(t, fulfillSvc.CancelOrder(ctx, buyer, first.OrderIDs[0]))
	require.Equal(t, 5, env.shopStock(t, listing.ID))

	cancelled, err := env.orders.FindOrder(ctx, first.OrderIDs[0])
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, cancelled.Status)

	// The reversal left the world as it began, so an identical cart
	// settles identically.
	second := settle()
	require.Equal(t, 3, env.shopStock(t, listing.ID))
	require.True(t, first.TotalAmount.Equal(second.TotalAmount))

	fresh, err := env.orders.FindOrder(ctx, second.OrderIDs[0])
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPending, fresh.Status)
	require.Len(t, fresh.Items, 1)
	require.Equal(t, enums.OrderItemStatusPending, fresh.Items[0].Status)
}
