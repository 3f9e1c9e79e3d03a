package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/kevmwangi/shoplink-backend/pkg/enums"
)

// Product is a global catalog entry. Identity is immutable; many inventory
// rows across shops and warehouses reference one product.
type Product struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string                `gorm:"column:name;not null"`
	Description string                `gorm:"column:description;not null"`
	Category    enums.ProductCategory `gorm:"column:category;type:text;not null"`
	Images      pq.StringArray        `gorm:"column:images;type:text[]"`
	CreatedBy   uuid.UUID             `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
