package orders

import (
	"github.com/google/uuid"

	"github.com/kevmwangi/shoplink-backend/pkg/db/models"
	"github.com/kevmwangi/shoplink-backend/pkg/enums"
)

// BuyerOrderFilters narrow a buyer's order listing.
type BuyerOrderFilters struct {
	Status    *enums.OrderStatus
	OrderType *enums.OrderType
}

// SellerRef identifies which storefront a seller listing targets.
type SellerRef struct {
	ShopID      *uuid.UUID
	WarehouseID *uuid.UUID
}

// SellerOrderFilters narrow a seller's order listing.
type SellerOrderFilters struct {
	Status *enums.OrderStatus
}

// OrderList is one keyset page of orders.
type OrderList struct {
	Orders     []models.Order
	NextCursor string
}
