package models

import (
	"github.com/google/uuid"
)

// PackageComponent associates a product with a package and the quantity
// consumed per package unit. Position preserves menu ordering, which also
// drives deterministic bottleneck tie-breaking.
//
// ChoiceGroup tags alternative components ("any one of three garnishes").
// It is informational: the availability calculation treats every listed
// component as required.
type PackageComponent struct {
	PackageID   uuid.UUID `gorm:"column:package_id;type:uuid;primaryKey"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	Quantity    int       `gorm:"column:quantity;not null"`
	Position    int       `gorm:"column:position;not null;default:0"`
	ChoiceGroup *string   `gorm:"column:choice_group"`
	Product     *Product  `gorm:"foreignKey:ProductID"`
}

// TableName pins the plural table used by migrations.
func (PackageComponent) TableName() string {
	return "package_components"
}
