package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kevmwangi/shoplink-backend/pkg/enums"
)

// Order is one settled purchase against a single seller. Retail orders carry
// a ShopID, wholesale orders a WarehouseID; exactly one of the two is set.
// TotalAmount is captured at settlement and never recomputed afterwards.
type Order struct {
	ID                       uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID                  uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null;index"`
	OrderType                enums.OrderType     `gorm:"column:order_type;type:varchar(20);not null"`
	ShopID                   *uuid.UUID          `gorm:"column:shop_id;type:uuid;index"`
	WarehouseID              *uuid.UUID          `gorm:"column:warehouse_id;type:uuid;index"`
	Status                   enums.OrderStatus   `gorm:"column:status;type:varchar(20);not null;default:'pending'"`
	TotalAmount              decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PaymentMethod            enums.PaymentMethod `gorm:"column:payment_method;type:varchar(30);not null"`
	PaymentStatus            enums.PaymentStatus `gorm:"column:payment_status;type:varchar(20);not null;default:'pending'"`
	PaymentReference         *string             `gorm:"column:payment_reference;type:varchar(255)"`
	DeliveryAddressID        *uuid.UUID          `gorm:"column:delivery_address_id;type:uuid"`
	OfflineOrderDeliveryDate *time.Time          `gorm:"column:offline_order_delivery_date"`
	Items                    []OrderItem         `gorm:"foreignKey:OrderID"`
	Shop                     *Shop               `gorm:"foreignKey:ShopID"`
	Warehouse                *Warehouse          `gorm:"foreignKey:WarehouseID"`
	DeliveryAddress          *Address            `gorm:"foreignKey:DeliveryAddressID"`
	CreatedAt                time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is one line of an order. Exactly one of ShopInventoryID or
// WarehouseInventoryID is set, matching the parent order's type.
// SourceWarehouseInventoryID records the warehouse listing behind a proxy
// listing so cancellation can reverse the correct stock pool.
type OrderItem struct {
	ID                         uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID                    uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	ShopInventoryID            *uuid.UUID            `gorm:"column:shop_inventory_id;type:uuid"`
	WarehouseInventoryID       *uuid.UUID            `gorm:"column:warehouse_inventory_id;type:uuid"`
	SourceWarehouseInventoryID *uuid.UUID            `gorm:"column:source_warehouse_inventory_id;type:uuid"`
	Quantity                   int                   `gorm:"column:quantity;not null;check:quantity > 0"`
	PriceAtPurchase            decimal.Decimal       `gorm:"column:price_at_purchase;type:numeric(12,2);not null"`
	Status                     enums.OrderItemStatus `gorm:"column:status;type:varchar(20);not null;default:'pending'"`
	Order                      *Order                `gorm:"foreignKey:OrderID"`
	ShopInventory              *ShopInventory        `gorm:"foreignKey:ShopInventoryID"`
	WarehouseInventory         *WarehouseInventory   `gorm:"foreignKey:WarehouseInventoryID"`
	CreatedAt                  time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                  time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// LineTotal is the captured price times quantity for this line.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
