package listings

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kevmwangi/shoplink-backend/pkg/enums"
)

// CreateShopListingParams describes a retailer listing a product for sale.
type CreateShopListingParams struct {
	ShopID        uuid.UUID
	ProductID     uuid.UUID
	StockQuantity int
	Price         decimal.Decimal
}

// CreateWarehouseListingParams describes a wholesaler listing bulk stock.
type CreateWarehouseListingParams struct {
	WarehouseID   uuid.UUID
	ProductID     uuid.UUID
	StockQuantity int
	Price         decimal.Decimal
}

// AdjustStockParams changes on-hand stock of an existing listing by a signed delta.
type AdjustStockParams struct {
	Kind      enums.InventoryKind
	ListingID uuid.UUID
	Delta     int
}

// UpdatePriceParams re-prices an existing listing.
type UpdatePriceParams struct {
	Kind      enums.InventoryKind
	ListingID uuid.UUID
	Price     decimal.Decimal
}
