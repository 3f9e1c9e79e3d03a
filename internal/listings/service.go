package listings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kevmwangi/shoplink-backend/internal/inventory"
	"github.com/kevmwangi/shoplink-backend/pkg/db/models"
	"github.com/kevmwangi/shoplink-backend/pkg/enums"
	pkgerrors "github.com/kevmwangi/shoplink-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages shop and warehouse listings, including the proxy listings
// a wholesale purchase materializes inside the buying retailer's shop.
type Service struct {
	repo   Repository
	tx     txRunner
	logger *zerolog.Logger
}

// NewService wires a listings service. All dependencies are required.
func NewService(repo Repository, tx txRunner, logger *zerolog.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("listings service requires a repository")
	}
	if tx == nil {
		return nil, fmt.Errorf("listings service requires a transaction runner")
	}
	if logger == nil {
		return nil, fmt.Errorf("listings service requires a logger")
	}
	return &Service{repo: repo, tx: tx, logger: logger}, nil
}

// CreateShopListing lists a product in the actor's shop. The shop must belong
// to the actor and hold at most one listing per product.
func (s *Service) CreateShopListing(ctx context.Context, actorID uuid.UUID, params CreateShopListingParams) (*models.ShopInventory, error) {
	if params.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
	}
	if params.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	shop, err := s.repo.FindShop(ctx, params.ShopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load shop")
	}
	if shop.OwnerUserID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "shop does not belong to the requesting user")
	}
	if _, err := s.repo.FindShopListingByProduct(ctx, params.ShopID, params.ProductID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is already listed in this shop")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to check existing listing")
	}

	listing, err := s.repo.CreateShopListing(ctx, &models.ShopInventory{
		ShopID:        params.ShopID,
		ProductID:     params.ProductID,
		StockQuantity: params.StockQuantity,
		Price:         params.Price,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create shop listing")
	}
	s.logger.Info().
		Str("shop_id", params.ShopID.String()).
		Str("listing_id", listing.ID.String()).
		Msg("shop listing created")
	return listing, nil
}

// CreateWarehouseListing lists bulk stock in the actor's warehouse.
func (s *Service) CreateWarehouseListing(ctx context.Context, actorID uuid.UUID, params CreateWarehouseListingParams) (*models.WarehouseInventory, error) {
	if params.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
	}
	if params.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	warehouse, err := s.repo.FindWarehouse(ctx, params.WarehouseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load warehouse")
	}
	if warehouse.OwnerUserID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "warehouse does not belong to the requesting user")
	}

	listing, err := s.repo.CreateWarehouseListing(ctx, &models.WarehouseInventory{
		WarehouseID:   params.WarehouseID,
		ProductID:     params.ProductID,
		StockQuantity: params.StockQuantity,
		Price:         params.Price,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create warehouse listing")
	}
	s.logger.Info().
		Str("warehouse_id", params.WarehouseID.String()).
		Str("listing_id", listing.ID.String()).
		Msg("warehouse listing created")
	return listing, nil
}

// AdjustStock moves a listing's stock by a signed delta. Negative deltas ride
// the guarded decrement so stock can never be driven below zero.
func (s *Service) AdjustStock(ctx context.Context, actorID uuid.UUID, params AdjustStockParams) error {
	if params.Delta == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock delta cannot be zero")
	}
	if err := s.authorizeListing(ctx, actorID, params.Kind, params.ListingID); err != nil {
		return err
	}
	ref := inventory.Ref{Kind: params.Kind, ID: params.ListingID}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if params.Delta > 0 {
			return inventory.Increment(ctx, tx, ref, params.Delta)
		}
		return inventory.Decrement(ctx, tx, ref, -params.Delta)
	})
}

// UpdatePrice re-prices one of the actor's listings.
func (s *Service) UpdatePrice(ctx context.Context, actorID uuid.UUID, params UpdatePriceParams) error {
	if params.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if err := s.authorizeListing(ctx, actorID, params.Kind, params.ListingID); err != nil {
		return err
	}
	updates := map[string]any{"price": params.Price}
	var err error
	switch params.Kind {
	case enums.InventoryKindShop:
		err = s.repo.UpdateShopListing(ctx, params.ListingID, updates)
	case enums.InventoryKindWarehouse:
		err = s.repo.UpdateWarehouseListing(ctx, params.ListingID, updates)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown inventory kind")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update listing price")
	}
	return nil
}

// ListShopListings returns a shop's storefront listings.
func (s *Service) ListShopListings(ctx context.Context, shopID uuid.UUID) ([]models.ShopInventory, error) {
	rows, err := s.repo.ListShopListings(ctx, shopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list shop listings")
	}
	return rows, nil
}

// ListWarehouseListings returns a warehouse's bulk listings.
func (s *Service) ListWarehouseListings(ctx context.Context, warehouseID uuid.UUID) ([]models.WarehouseInventory, error) {
	rows, err := s.repo.ListWarehouseListings(ctx, warehouseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list warehouse listings")
	}
	return rows, nil
}

// CreateOrMergeProxyListing lands purchased wholesale stock in the buying
// retailer's shop. It must run inside the same transaction that decremented
// the warehouse pool. When the shop already lists the product, purchased
// quantity merges into the existing row and provenance re-points at the
// latest source warehouse listing; otherwise a fresh proxy row is created.
func (s *Service) CreateOrMergeProxyListing(ctx context.Context, tx *gorm.DB, shopID uuid.UUID, source models.WarehouseInventory, qty int, sellingPrice decimal.Decimal) (uuid.UUID, error) {
	if tx == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeDependency, "proxy listing requires an active transaction")
	}
	if qty <= 0 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "proxy listing quantity must be positive")
	}
	if sellingPrice.IsNegative() {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "selling price cannot be negative")
	}

	repo := s.repo.WithTx(tx)
	existing, err := repo.FindShopListingByProduct(ctx, shopID, source.ProductID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to check existing shop listing")
		}
		created, createErr := repo.CreateShopListing(ctx, &models.ShopInventory{
			ShopID:               shopID,
			ProductID:            source.ProductID,
			StockQuantity:        qty,
			Price:                sellingPrice,
			IsProxyItem:          true,
			WarehouseInventoryID: &source.ID,
		})
		if createErr != nil {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "failed to create proxy listing")
		}
		s.logger.Info().
			Str("shop_id", shopID.String()).
			Str("listing_id", created.ID.String()).
			Str("source_warehouse_inventory_id", source.ID.String()).
			Msg("proxy listing created")
		return created.ID, nil
	}

	if existing.WarehouseInventoryID != nil && *existing.WarehouseInventoryID != source.ID {
		s.logger.Warn().
			Str("listing_id", existing.ID.String()).
			Str("previous_source", existing.WarehouseInventoryID.String()).
			Str("new_source", source.ID.String()).
			Msg("proxy listing provenance re-pointed to latest source")
	}
	err = repo.UpdateShopListing(ctx, existing.ID, map[string]any{
		"stock_quantity":         gorm.Expr("stock_quantity + ?", qty),
		"is_proxy_item":          true,
		"warehouse_inventory_id": source.ID,
	})
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to merge proxy listing")
	}
	s.logger.Info().
		Str("shop_id", shopID.String()).
		Str("listing_id", existing.ID.String()).
		Int("merged_quantity", qty).
		Msg("proxy listing merged")
	return existing.ID, nil
}

func (s *Service) authorizeListing(ctx context.Context, actorID uuid.UUID, kind enums.InventoryKind, listingID uuid.UUID) error {
	switch kind {
	case enums.InventoryKindShop:
		listing, err := s.repo.FindShopListing(ctx, listingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load listing")
		}
		shop, err := s.repo.FindShop(ctx, listing.ShopID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load shop")
		}
		if shop.OwnerUserID != actorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "listing does not belong to the requesting user")
		}
	case enums.InventoryKindWarehouse:
		listing, err := s.repo.FindWarehouseListing(ctx, listingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load listing")
		}
		warehouse, err := s.repo.FindWarehouse(ctx, listing.WarehouseID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load warehouse")
		}
		if warehouse.OwnerUserID != actorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "listing does not belong to the requesting user")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown inventory kind")
	}
	return nil
}
