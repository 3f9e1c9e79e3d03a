package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is a customer's single open cart. Prices are never stored on cart
// items; they are read from the live listing at settlement time.
type Cart struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID  `gorm:"column:customer_id;type:uuid;not null;uniqueIndex"`
	Items      []CartItem `gorm:"foreignKey:CartID"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// CartItem references a shop listing with a desired quantity.
type CartItem struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID          uuid.UUID      `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:ux_cart_items_cart_listing"`
	ShopInventoryID uuid.UUID      `gorm:"column:shop_inventory_id;type:uuid;not null;uniqueIndex:ux_cart_items_cart_listing"`
	Quantity        int            `gorm:"column:quantity;not null;check:quantity > 0"`
	ShopInventory   *ShopInventory `gorm:"foreignKey:ShopInventoryID"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
