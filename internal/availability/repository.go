package availability

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cantina-pos/cantina-backend/pkg/db/models"
)

// Store is the product stock store consumed by the engine. It is strictly
// read-only: stock mutation lives behind the inventory service's row-locked
// adjustment.
type Store interface {
	GetPackage(ctx context.Context, id uuid.UUID) (*models.Package, error)
	GetPackageComponents(ctx context.Context, packageID uuid.UUID) ([]ComponentLine, error)
	GetProductStock(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
	ListPackages(ctx context.Context, includeInactive bool) ([]models.Package, error)
}

// ComponentLine is one component row shaped for the calculation: product
// identity plus the required quantity per package unit, in menu order.
type ComponentLine struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	ChoiceGroup *string
}

// Repository implements Store over the shared GORM connection.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetPackage loads the package header without associations.
func (r *Repository) GetPackage(ctx context.Context, id uuid.UUID) (*models.Package, error) {
	var pkg models.Package
	if err := r.db.WithContext(ctx).First(&pkg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

// GetPackageComponents returns the package's component lines joined to their
// products, ordered by menu position so bottleneck tie-breaking stays stable.
func (r *Repository) GetPackageComponents(ctx context.Context, packageID uuid.UUID) ([]ComponentLine, error) {
	var rows []models.PackageComponent
	err := r.db.WithContext(ctx).
		Where("package_id = ?", packageID).
		Order("position ASC").
		Preload("Product").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	lines := make([]ComponentLine, 0, len(rows))
	for _, row := range rows {
		line := ComponentLine{
			ProductID:   row.ProductID,
			Quantity:    row.Quantity,
			ChoiceGroup: row.ChoiceGroup,
		}
		if row.Product != nil {
			line.ProductName = row.Product.Name
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// GetProductStock fetches the current stock level for one product.
func (r *Repository) GetProductStock(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Select("id", "stock_quantity").First(&product, "id = ?", productID).Error; err != nil {
		return decimal.Zero, err
	}
	return product.StockQuantity, nil
}

// ListPackages returns packages ordered by name, active-only by default.
func (r *Repository) ListPackages(ctx context.Context, includeInactive bool) ([]models.Package, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var pkgs []models.Package
	if err := query.Find(&pkgs).Error; err != nil {
		return nil, err
	}
	return pkgs, nil
}
