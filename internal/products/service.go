package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kevmwangi/shoplink-backend/internal/listings"
	"github.com/kevmwangi/shoplink-backend/pkg/db/models"
	"github.com/kevmwangi/shoplink-backend/pkg/enums"
	pkgerrors "github.com/kevmwangi/shoplink-backend/pkg/errors"
	"github.com/kevmwangi/shoplink-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateProductParams describes a new catalog entry plus its initial
// listing. LocationID is the seller's shop or warehouse, matching the
// seller's role.
type CreateProductParams struct {
	Name         string
	Description  string
	Category     enums.ProductCategory
	Images       []string
	LocationID   uuid.UUID
	InitialStock int
	Price        decimal.Decimal
}

// sellerContext resolves the role-specific half of product creation once
// per request: who must own the location and which ledger takes the
// initial listing.
type sellerContext struct {
	kind enums.InventoryKind
}

func contextForRole(role enums.UserRole) (*sellerContext, error) {
	switch role {
	case enums.UserRoleRetailer:
		return &sellerContext{kind: enums.InventoryKindShop}, nil
	case enums.UserRoleWholesaler:
		return &sellerContext{kind: enums.InventoryKindWarehouse}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only sellers may create products")
	}
}

// Service manages the shared product catalog.
type Service struct {
	repo     Repository
	listings listings.Repository
	tx       txRunner
	logger   *zerolog.Logger
}

// NewService wires a products service. All dependencies are required.
func NewService(repo Repository, listingRepo listings.Repository, tx txRunner, logger *zerolog.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products service requires a repository")
	}
	if listingRepo == nil {
		return nil, fmt.Errorf("products service requires a listings repository")
	}
	if tx == nil {
		return nil, fmt.Errorf("products service requires a transaction runner")
	}
	if logger == nil {
		return nil, fmt.Errorf("products service requires a logger")
	}
	return &Service{repo: repo, listings: listingRepo, tx: tx, logger: logger}, nil
}

// CreateProduct creates a catalog entry and its first listing in the
// seller's shop or warehouse, both in one transaction.
func (s *Service) CreateProduct(ctx context.Context, actorID uuid.UUID, role enums.UserRole, params CreateProductParams) (*models.Product, error) {
	if strings.TrimSpace(params.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if strings.TrimSpace(params.Description) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product description is required")
	}
	if !params.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown product category")
	}
	if params.InitialStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial stock cannot be negative")
	}
	if params.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	sellerCtx, err := contextForRole(role)
	if err != nil {
		return nil, err
	}

	var created *models.Product
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		listingRepo := s.listings.WithTx(tx)
		if err := s.authorizeLocation(ctx, listingRepo, sellerCtx.kind, actorID, params.LocationID); err != nil {
			return err
		}

		product, err := s.repo.WithTx(tx).Create(ctx, &models.Product{
			Name:        params.Name,
			Description: params.Description,
			Category:    params.Category,
			Images:      pq.StringArray(params.Images),
			CreatedBy:   actorID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create product")
		}

		switch sellerCtx.kind {
		case enums.InventoryKindShop:
			_, err = listingRepo.CreateShopListing(ctx, &models.ShopInventory{
				ShopID:        params.LocationID,
				ProductID:     product.ID,
				StockQuantity: params.InitialStock,
				Price:         params.Price,
			})
		case enums.InventoryKindWarehouse:
			_, err = listingRepo.CreateWarehouseListing(ctx, &models.WarehouseInventory{
				WarehouseID:   params.LocationID,
				ProductID:     product.ID,
				StockQuantity: params.InitialStock,
				Price:         params.Price,
			})
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create initial listing")
		}

		created = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("product_id", created.ID.String()).
		Str("seller_role", role.String()).
		Msg("product created with initial listing")
	return created, nil
}

// GetProduct returns one catalog entry.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load product")
	}
	return product, nil
}

// ListProducts pages through the catalog, optionally filtered by category.
func (s *Service) ListProducts(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Product, string, error) {
	rows, next, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list products")
	}
	return rows, next, nil
}

func (s *Service) authorizeLocation(ctx context.Context, listingRepo listings.Repository, kind enums.InventoryKind, actorID, locationID uuid.UUID) error {
	switch kind {
	case enums.InventoryKindShop:
		shop, err := listingRepo.FindShop(ctx, locationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load shop")
		}
		if shop.OwnerUserID != actorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "shop does not belong to the requesting user")
		}
	case enums.InventoryKindWarehouse:
		warehouse, err := listingRepo.FindWarehouse(ctx, locationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "warehouse not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load warehouse")
		}
		if warehouse.OwnerUserID != actorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "warehouse does not belong to the requesting user")
		}
	}
	return nil
}
