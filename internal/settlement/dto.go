package settlement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kevmwangi/shoplink-backend/pkg/enums"
)

// SettleCartParams carries everything a cart settlement needs besides the
// customer identity.
type SettleCartParams struct {
	DeliveryAddressID uuid.UUID
	PaymentMethod     enums.PaymentMethod
	PaymentReference  string
}

// WholesaleOrderParams describes a retailer's direct purchase from a
// warehouse listing. When Proxy is true the purchased stock lands in the
// retailer's shop as a proxy listing priced at SellingPrice.
type WholesaleOrderParams struct {
	ShopID               uuid.UUID
	WarehouseInventoryID uuid.UUID
	Quantity             int
	Proxy                bool
	SellingPrice         decimal.Decimal
	PaymentMethod        enums.PaymentMethod
	PaymentReference     string
}

// SettlementResult reports the orders a settlement produced.
type SettlementResult struct {
	OrderIDs    []uuid.UUID
	TotalAmount decimal.Decimal
}
