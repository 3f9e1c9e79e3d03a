package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kevmwangi/shoplink-backend/internal/listings"
	"github.com/kevmwangi/shoplink-backend/pkg/db/models"
	"github.com/kevmwangi/shoplink-backend/pkg/enums"
	pkgerrors "github.com/kevmwangi/shoplink-backend/pkg/errors"
	"github.com/kevmwangi/shoplink-backend/pkg/pagination"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newProductsDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
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
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func newProductsService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	logger := zerolog.Nop()
	svc, err := NewService(NewRepository(db), listings.NewRepository(db), testTxRunner{db: db}, &logger)
	require.NoError(t, err)
	return svc
}

func validCreateParams(locationID uuid.UUID) CreateProductParams {
	return CreateProductParams{
		Name:         "Maize Flour 2kg",
		Description:  "Fortified maize flour, 2kg bale unit",
		Category:     enums.ProductCategoryGrocery,
		Images:       []string{"https://cdn.example.com/maize-flour.jpg"},
		LocationID:   locationID,
		InitialStock: 40,
		Price:        decimal.RequireFromString("120.00"),
	}
}

func TestCreateProductAsRetailer(t *testing.T) {
	db := newProductsDB(t)
	svc := newProductsService(t, db)
	ctx := context.Background()

	ownerID := uuid.New()
	shop := models.Shop{ID: uuid.New(), OwnerUserID: ownerID, Name: "Corner Minimart"}
	require.NoError(t, db.Create(&shop).Error)

	product, err := svc.CreateProduct(ctx, ownerID, enums.UserRoleRetailer, validCreateParams(shop.ID))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, product.ID)

	var listing models.ShopInventory
	require.NoError(t, db.Where("shop_id = ? AND product_id = ?", shop.ID, product.ID).First(&listing).Error)
	require.Equal(t, 40, listing.StockQuantity)
	require.True(t, listing.Price.Equal(decimal.RequireFromString("120.00")))
	require.False(t, listing.IsProxyItem)
}

func TestCreateProductAsWholesaler(t *testing.T) {
	db := newProductsDB(t)
	svc := newProductsService(t, db)
	ctx := context.Background()

	ownerID := uuid.New()
	warehouse := models.Warehouse{ID: uuid.New(), OwnerUserID: ownerID, Name: "Eastlands Depot"}
	require.NoError(t, db.Create(&warehouse).Error)

	product, err := svc.CreateProduct(ctx, ownerID, enums.UserRoleWholesaler, validCreateParams(warehouse.ID))
	require.NoError(t, err)

	var listing models.WarehouseInventory
	require.NoError(t, db.Where("warehouse_id = ? AND product_id = ?", warehouse.ID, product.ID).First(&listing).Error)
	require.Equal(t, 40, listing.StockQuantity)
}

func TestCreateProductRejections(t *testing.T) {
	db := newProductsDB(t)
	svc := newProductsService(t, db)
	ctx := context.Background()

	ownerID := uuid.New()
	shop := models.Shop{ID: uuid.New(), OwnerUserID: ownerID, Name: "Corner Minimart"}
	require.NoError(t, db.Create(&shop).Error)

	// Customers cannot create products.
	_, err := svc.CreateProduct(ctx, ownerID, enums.UserRoleCustomer, validCreateParams(shop.ID))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	// Someone else's shop.
	_, err = svc.CreateProduct(ctx, uuid.New(), enums.UserRoleRetailer, validCreateParams(shop.ID))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	params := validCreateParams(shop.ID)
	params.Name = " "
	_, err = svc.CreateProduct(ctx, ownerID, enums.UserRoleRetailer, params)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	params = validCreateParams(shop.ID)
	params.Category = "weapons"
	_, err = svc.CreateProduct(ctx, ownerID, enums.UserRoleRetailer, params)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	// Nothing was persisted by the failed attempts.
	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestGetAndListProducts(t *testing.T) {
	db := newProductsDB(t)
	svc := newProductsService(t, db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	electronics := enums.ProductCategoryElectronics
	for i := 0; i < 3; i++ {
		category := enums.ProductCategoryGrocery
		if i == 2 {
			category = electronics
		}
		row := models.Product{
			ID:          uuid.New(),
			Name:        "Catalog Item",
			Description: "d",
			Category:    category,
			CreatedBy:   uuid.New(),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&row).Error)
	}

	rows, next, err := svc.ListProducts(ctx, pagination.Params{Limit: 2}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotEmpty(t, next)

	rest, next2, err := svc.ListProducts(ctx, pagination.Params{Limit: 2, Cursor: next}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Empty(t, next2)

	filtered, _, err := svc.ListProducts(ctx, pagination.Params{}, ListFilters{Category: &electronics})
	require.NoError(t, err)
	require.Len(t, filtered, 1)

	found, err := svc.GetProduct(ctx, rows[0].ID)
	require.NoError(t, err)
	require.Equal(t, rows[0].ID, found.ID)

	_, err = svc.GetProduct(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
