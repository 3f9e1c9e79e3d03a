package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevmwangi/shoplink-backend/pkg/db/models"
	pkgerrors "github.com/kevmwangi/shoplink-backend/pkg/errors"
	"github.com/kevmwangi/shoplink-backend/pkg/pagination"
)

type sellerLookup interface {
	FindShop(ctx context.Context, id uuid.UUID) (*models.Shop, error)
	FindWarehouse(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
}

// Service serves order reads. Writes go through settlement and fulfillment.
type Service struct {
	repo    Repository
	sellers sellerLookup
}

// NewService wires an orders read service.
func NewService(repo Repository, sellers sellerLookup) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders service requires a repository")
	}
	if sellers == nil {
		return nil, fmt.Errorf("orders service requires a seller lookup")
	}
	return &Service{repo: repo, sellers: sellers}, nil
}

// GetOrder returns one order with items. Only the buyer and the owning
// seller may see it.
func (s *Service) GetOrder(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load order")
	}
	if order.BuyerID == actorID {
		return order, nil
	}
	owner, err := s.ownerOf(ctx, order)
	if err != nil {
		return nil, err
	}
	if owner != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this order")
	}
	return order, nil
}

// ListBuyerOrders pages through a buyer's own orders.
func (s *Service) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters BuyerOrderFilters) (*OrderList, error) {
	list, err := s.repo.ListBuyerOrders(ctx, buyerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list orders")
	}
	return list, nil
}

// ListSellerOrders pages through incoming orders for one of the actor's
// storefronts. Ownership of the storefront is checked here, not assumed.
func (s *Service) ListSellerOrders(ctx context.Context, actorID uuid.UUID, seller SellerRef, params pagination.Params, filters SellerOrderFilters) (*OrderList, error) {
	switch {
	case seller.ShopID != nil:
		shop, err := s.sellers.FindShop(ctx, *seller.ShopID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load shop")
		}
		if shop.OwnerUserID != actorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "shop does not belong to the requesting user")
		}
	case seller.WarehouseID != nil:
		warehouse, err := s.sellers.FindWarehouse(ctx, *seller.WarehouseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load warehouse")
		}
		if warehouse.OwnerUserID != actorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "warehouse does not belong to the requesting user")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a shop or warehouse id is required")
	}

	list, err := s.repo.ListSellerOrders(ctx, seller, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list seller orders")
	}
	return list, nil
}

func (s *Service) ownerOf(ctx context.Context, order *models.Order) (uuid.UUID, error) {
	switch {
	case order.ShopID != nil:
		shop, err := s.sellers.FindShop(ctx, *order.ShopID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return uuid.Nil, nil
			}
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load shop")
		}
		return shop.OwnerUserID, nil
	case order.WarehouseID != nil:
		warehouse, err := s.sellers.FindWarehouse(ctx, *order.WarehouseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return uuid.Nil, nil
			}
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load warehouse")
		}
		return warehouse.OwnerUserID, nil
	}
	return uuid.Nil, nil
}
