package models

import (
	"time"

	"github.com/google/uuid"
)

// Package is a sellable bundle of products sold as one line item, e.g. a
// bucket of six beers or a bottle-plus-mixers table service.
type Package struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name           string             `gorm:"column:name;not null"`
	Description    *string            `gorm:"column:description"`
	BasePriceCents int                `gorm:"column:base_price_cents;not null"`
	VIPPriceCents  *int               `gorm:"column:vip_price_cents"`
	IsActive       bool               `gorm:"column:is_active;not null;default:true"`
	ValidFrom      *time.Time         `gorm:"column:valid_from"`
	ValidUntil     *time.Time         `gorm:"column:valid_until"`
	Components     []PackageComponent `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the plural table used by migrations.
func (Package) TableName() string {
	return "packages"
}
