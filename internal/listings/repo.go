package listings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevmwangi/shoplink-backend/pkg/db/models"
)

// Repository defines persistence operations for shop and warehouse listings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindShopListing(ctx context.Context, id uuid.UUID) (*models.ShopInventory, error)
	FindShopListingByProduct(ctx context.Context, shopID, productID uuid.UUID) (*models.ShopInventory, error)
	FindWarehouseListing(ctx context.Context, id uuid.UUID) (*models.WarehouseInventory, error)
	CreateShopListing(ctx context.Context, listing *models.ShopInventory) (*models.ShopInventory, error)
	CreateWarehouseListing(ctx context.Context, listing *models.WarehouseInventory) (*models.WarehouseInventory, error)
	UpdateShopListing(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateWarehouseListing(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListShopListings(ctx context.Context, shopID uuid.UUID) ([]models.ShopInventory, error)
	ListWarehouseListings(ctx context.Context, warehouseID uuid.UUID) ([]models.WarehouseInventory, error)
	FindShop(ctx context.Context, id uuid.UUID) (*models.Shop, error)
	FindWarehouse(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a listings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindShopListing(ctx context.Context, id uuid.UUID) (*models.ShopInventory, error) {
	var listing models.ShopInventory
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) FindShopListingByProduct(ctx context.Context, shopID, productID uuid.UUID) (*models.ShopInventory, error) {
	var listing models.ShopInventory
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND product_id = ?", shopID, productID).
		First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) FindWarehouseListing(ctx context.Context, id uuid.UUID) (*models.WarehouseInventory, error) {
	var listing models.WarehouseInventory
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) CreateShopListing(ctx context.Context, listing *models.ShopInventory) (*models.ShopInventory, error) {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

func (r *repository) CreateWarehouseListing(ctx context.Context, listing *models.WarehouseInventory) (*models.WarehouseInventory, error) {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

func (r *repository) UpdateShopListing(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.ShopInventory{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) UpdateWarehouseListing(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.WarehouseInventory{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListShopListings(ctx context.Context, shopID uuid.UUID) ([]models.ShopInventory, error) {
	var rows []models.ShopInventory
	err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListWarehouseListings(ctx context.Context, warehouseID uuid.UUID) ([]models.WarehouseInventory, error) {
	var rows []models.WarehouseInventory
	err := r.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindShop(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&shop).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *repository) FindWarehouse(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&warehouse).Error
	if err != nil {
		return nil, err
	}
	return &warehouse, nil
}
