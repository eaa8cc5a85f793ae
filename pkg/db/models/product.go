package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a stockable item sold directly or as a package component.
// Stock is fractional: draft beer in liters, spirits in partial bottles.
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name          string          `gorm:"column:name;not null"`
	SKU           string          `gorm:"column:sku;not null"`
	Unit          string          `gorm:"column:unit;not null;default:'unit'"`
	StockQuantity decimal.Decimal `gorm:"column:stock_quantity;type:numeric(12,3);not null;default:0"`
	ReorderPoint  decimal.Decimal `gorm:"column:reorder_point;type:numeric(12,3);not null;default:0"`
	PriceCents    int             `gorm:"column:price_cents;not null;default:0"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the plural table used by migrations.
func (Product) TableName() string {
	return "products"
}
