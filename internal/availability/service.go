package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cantina-pos/cantina-backend/pkg/db"
	"github.com/cantina-pos/cantina-backend/pkg/db/models"
	"github.com/cantina-pos/cantina-backend/pkg/enums"
	pkgerrors "github.com/cantina-pos/cantina-backend/pkg/errors"
	"github.com/cantina-pos/cantina-backend/pkg/logger"
	"github.com/cantina-pos/cantina-backend/pkg/metrics"
)

// Service computes package availability: the maximum sellable quantity of a
// bundle given the shared component stock backing it. Results are advisory;
// the authoritative oversell guard is the inventory service's row-locked
// stock adjustment.
type Service interface {
	// ForPackage returns the availability of one package. The boolean reports
	// whether the result was served from cache.
	ForPackage(ctx context.Context, packageID uuid.UUID, forceRefresh bool) (*Result, bool, error)
	// ForAll computes availability for every package, isolating per-package
	// failures into zero-availability fallback entries.
	ForAll(ctx context.Context, opts BatchOptions) (map[uuid.UUID]*Result, error)
	// Summaries projects the batch run into compact list-view entries.
	Summaries(ctx context.Context, opts BatchOptions) ([]Summary, error)
	// CacheStats exposes the cache size and generation counter.
	CacheStats() CacheStats
}

type service struct {
	store          Store
	cache          *Cache
	logg           *logger.Logger
	metrics        *metrics.AvailabilityMetrics
	lowStockBuffer int
}

// NewService constructs the availability engine. The cache is injected so
// callers control its lifecycle and tests get isolated instances.
func NewService(store Store, cache *Cache, logg *logger.Logger, m *metrics.AvailabilityMetrics, lowStockBuffer int) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("availability store required")
	}
	if cache == nil {
		return nil, fmt.Errorf("availability cache required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if lowStockBuffer < 0 {
		lowStockBuffer = 0
	}
	return &service{
		store:          store,
		cache:          cache,
		logg:           logg,
		metrics:        m,
		lowStockBuffer: lowStockBuffer,
	}, nil
}

func (s *service) ForPackage(ctx context.Context, packageID uuid.UUID, forceRefresh bool) (*Result, bool, error) {
	if !forceRefresh {
		if cached, ok := s.cache.Get(packageID); ok {
			s.metrics.IncCacheHit()
			return cached, true, nil
		}
	}
	s.metrics.IncCacheMiss()

	start := time.Now()
	result, err := s.compute(ctx, packageID)
	if err != nil {
		return nil, false, err
	}
	s.metrics.ObserveCalcDuration(time.Since(start))

	s.cache.Put(packageID, result)
	return result, false, nil
}

func (s *service) compute(ctx context.Context, packageID uuid.UUID) (*Result, error) {
	pkg, err := s.store.GetPackage(ctx, packageID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "package not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeCalculation, err, "loading package")
	}

	lines, err := s.store.GetPackageComponents(ctx, packageID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeCalculation, err, "loading package components")
	}

	stocks := make(map[uuid.UUID]decimal.Decimal, len(lines))
	for _, line := range lines {
		if _, ok := stocks[line.ProductID]; ok {
			continue
		}
		stock, err := s.store.GetProductStock(ctx, line.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeCalculation, err, "loading component stock")
		}
		stocks[line.ProductID] = stock
	}

	result := &Result{
		PackageID:   pkg.ID,
		PackageName: pkg.Name,
		Components:  make([]ComponentAvailability, 0, len(lines)),
		ComputedAt:  time.Now().UTC(),
	}

	// Min rule: max sellable is the floor(stock/required) minimum across all
	// valid components, first-in-order winning ties. An empty or fully
	// invalid component list sells zero.
	minSupported := int64(-1)
	bottleneckIdx := -1
	for _, line := range lines {
		stock := stocks[line.ProductID]
		comp := ComponentAvailability{
			ProductID:    line.ProductID,
			ProductName:  line.ProductName,
			CurrentStock: stock,
			RequiredQty:  line.Quantity,
			ChoiceGroup:  line.ChoiceGroup,
		}

		if line.Quantity <= 0 {
			comp.Invalid = true
			wctx := s.logg.WithFields(ctx, map[string]any{
				"package_id": pkg.ID.String(),
				"product_id": line.ProductID.String(),
				"quantity":   line.Quantity,
			})
			s.logg.Warn(wctx, "package component has non-positive required quantity, excluded from calculation")
			result.Components = append(result.Components, comp)
			continue
		}

		supported := stock.Div(decimal.NewFromInt(int64(line.Quantity))).Floor().IntPart()
		if supported < 0 {
			supported = 0
		}
		comp.MaxSupported = supported
		result.Components = append(result.Components, comp)

		if minSupported < 0 || supported < minSupported {
			minSupported = supported
			bottleneckIdx = len(result.Components) - 1
		}
	}

	if minSupported < 0 {
		minSupported = 0
	}
	result.MaxSellable = minSupported

	if bottleneckIdx >= 0 {
		limiting := result.Components[bottleneckIdx]
		result.Bottleneck = &Bottleneck{
			ProductID:    limiting.ProductID,
			ProductName:  limiting.ProductName,
			CurrentStock: limiting.CurrentStock,
			RequiredQty:  limiting.RequiredQty,
		}
	}

	return result, nil
}

func (s *service) ForAll(ctx context.Context, opts BatchOptions) (map[uuid.UUID]*Result, error) {
	pkgs, results, err := s.forAllOrdered(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*Result, len(pkgs))
	for i, pkg := range pkgs {
		out[pkg.ID] = results[i]
	}
	return out, nil
}

// forAllOrdered runs the batch in package list order. One package's failure
// becomes a degraded zero-availability entry rather than aborting the run.
func (s *service) forAllOrdered(ctx context.Context, opts BatchOptions) ([]models.Package, []*Result, error) {
	pkgs, err := s.store.ListPackages(ctx, opts.IncludeInactive)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeCalculation, err, "listing packages")
	}

	results := make([]*Result, len(pkgs))
	for i, pkg := range pkgs {
		result, _, err := s.ForPackage(ctx, pkg.ID, opts.ForceRefresh)
		if err != nil {
			s.metrics.IncBatchError()
			ectx := s.logg.WithPackageID(ctx, pkg.ID.String())
			s.logg.Error(ectx, "availability calculation failed, reporting zero availability", err)
			result = &Result{
				PackageID:   pkg.ID,
				PackageName: pkg.Name,
				MaxSellable: 0,
				Components:  []ComponentAvailability{},
				ComputedAt:  time.Now().UTC(),
				Degraded:    true,
			}
		}
		results[i] = result
	}
	return pkgs, results, nil
}

func (s *service) Summaries(ctx context.Context, opts BatchOptions) ([]Summary, error) {
	_, results, err := s.forAllOrdered(ctx, opts)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(results))
	for _, result := range results {
		summary := Summary{
			PackageID:   result.PackageID,
			PackageName: result.PackageName,
			MaxSellable: result.MaxSellable,
			Status:      enums.ClassifyAvailability(result.MaxSellable, s.lowStockBuffer),
		}
		if result.Bottleneck != nil {
			summary.Bottleneck = &SummaryBottleneck{
				ProductName:  result.Bottleneck.ProductName,
				CurrentStock: result.Bottleneck.CurrentStock,
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *service) CacheStats() CacheStats {
	return s.cache.Stats()
}
