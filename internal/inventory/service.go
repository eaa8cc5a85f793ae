package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cantina-pos/cantina-backend/pkg/db"
	"github.com/cantina-pos/cantina-backend/pkg/db/models"
	pkgerrors "github.com/cantina-pos/cantina-backend/pkg/errors"
	"github.com/cantina-pos/cantina-backend/pkg/logger"
)

// AdjustResult reports a completed stock adjustment.
type AdjustResult struct {
	ProductID uuid.UUID       `json:"product_id"`
	Before    decimal.Decimal `json:"before"`
	After     decimal.Decimal `json:"after"`
}

// Invalidator is the availability cache surface the service bumps after a
// stock-affecting write.
type Invalidator interface {
	Invalidate()
}

// Notifier fans the stock change out to other instances.
type Notifier interface {
	StockChanged(ctx context.Context, productID uuid.UUID) error
}

// Service owns the authoritative stock mutation path. AdjustStock is the
// oversell guard: a row-locked read-validate-write that rejects any delta
// driving stock negative. The availability engine only ever estimates; this
// is where correctness lives.
type Service interface {
	AdjustStock(ctx context.Context, productID uuid.UUID, delta decimal.Decimal) (*AdjustResult, error)
}

type service struct {
	dbClient *db.Client
	cache    Invalidator
	notifier Notifier
	logg     *logger.Logger
}

// NewService constructs the inventory service. The notifier is optional;
// single-instance deployments rely on the synchronous cache invalidation.
func NewService(dbClient *db.Client, cache Invalidator, notifier Notifier, logg *logger.Logger) (Service, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if cache == nil {
		return nil, fmt.Errorf("availability cache required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{dbClient: dbClient, cache: cache, notifier: notifier, logg: logg}, nil
}

func (s *service) AdjustStock(ctx context.Context, productID uuid.UUID, delta decimal.Decimal) (*AdjustResult, error) {
	if delta.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment delta must be non-zero")
	}

	var result AdjustResult
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		query := tx
		// SQLite serializes writers on its own and rejects FOR UPDATE.
		if tx.Dialector.Name() == "postgres" {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var product models.Product
		if err := query.First(&product, "id = ?", productID).Error; err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product for adjustment")
		}

		after := product.StockQuantity.Add(delta)
		if after.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock for adjustment").WithDetails(map[string]any{
				"product_id": productID.String(),
				"current":    product.StockQuantity.String(),
				"delta":      delta.String(),
			})
		}

		if err := tx.Model(&models.Product{}).
			Where("id = ?", productID).
			Update("stock_quantity", after).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing adjusted stock")
		}

		result = AdjustResult{ProductID: productID, Before: product.StockQuantity, After: after}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Local invalidation is synchronous so this node never serves itself a
	// stale availability result; the notifier covers the other instances.
	s.cache.Invalidate()
	if s.notifier != nil {
		if err := s.notifier.StockChanged(ctx, productID); err != nil {
			nctx := s.logg.WithProductID(ctx, productID.String())
			s.logg.Error(nctx, "stock change notification failed", err)
		}
	}

	return &result, nil
}
