package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one cart item joined with its live listing.
type CartLine struct {
	ItemID      uuid.UUID       `json:"item_id"`
	ListingID   uuid.UUID       `json:"listing_id"`
	ShopID      uuid.UUID       `json:"shop_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	InStock     int             `json:"in_stock"`
}

// CartView is a customer's cart rendered against live listing data.
type CartView struct {
	CartID   uuid.UUID       `json:"cart_id"`
	Lines    []CartLine      `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
}
