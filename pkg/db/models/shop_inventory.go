package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShopInventory is a shop's sellable listing of a product. Stock sourced from
// a warehouse keeps a back-reference for traceability; quantity can reach
// zero but rows referenced by historical order items are never deleted.
type ShopInventory struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID               uuid.UUID       `gorm:"column:shop_id;type:uuid;not null;uniqueIndex:ux_shop_inventories_shop_product"`
	ProductID            uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_shop_inventories_shop_product"`
	StockQuantity        int             `gorm:"column:stock_quantity;not null;default:0;check:stock_quantity >= 0"`
	Price                decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	IsProxyItem          bool            `gorm:"column:is_proxy_item;not null;default:false"`
	WarehouseInventoryID *uuid.UUID      `gorm:"column:warehouse_inventory_id;type:uuid"`
	Shop                 *Shop           `gorm:"foreignKey:ShopID"`
	Product              *Product        `gorm:"foreignKey:ProductID"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// WarehouseInventory is a warehouse's sellable listing of a product.
type WarehouseInventory struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WarehouseID   uuid.UUID       `gorm:"column:warehouse_id;type:uuid;not null;uniqueIndex:ux_warehouse_inventories_warehouse_product"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_warehouse_inventories_warehouse_product"`
	StockQuantity int             `gorm:"column:stock_quantity;not null;default:0;check:stock_quantity >= 0"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Warehouse     *Warehouse      `gorm:"foreignKey:WarehouseID"`
	Product       *Product        `gorm:"foreignKey:ProductID"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
