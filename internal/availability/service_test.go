package availability

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cantina-pos/cantina-backend/pkg/db/models"
	"github.com/cantina-pos/cantina-backend/pkg/enums"
	pkgerrors "github.com/cantina-pos/cantina-backend/pkg/errors"
	"github.com/cantina-pos/cantina-backend/pkg/logger"
)

type fakeStore struct {
	packages   map[uuid.UUID]*models.Package
	listOrder  []uuid.UUID
	components map[uuid.UUID][]ComponentLine
	stocks     map[uuid.UUID]decimal.Decimal

	stockErr      map[uuid.UUID]error
	componentsErr map[uuid.UUID]error

	packageReads   int
	componentReads int
	stockReads     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		packages:      map[uuid.UUID]*models.Package{},
		components:    map[uuid.UUID][]ComponentLine{},
		stocks:        map[uuid.UUID]decimal.Decimal{},
		stockErr:      map[uuid.UUID]error{},
		componentsErr: map[uuid.UUID]error{},
	}
}

func (f *fakeStore) addPackage(name string, components ...ComponentLine) uuid.UUID {
	id := uuid.New()
	f.packages[id] = &models.Package{ID: id, Name: name, IsActive: true}
	f.listOrder = append(f.listOrder, id)
	f.components[id] = components
	return id
}

func (f *fakeStore) GetPackage(_ context.Context, id uuid.UUID) (*models.Package, error) {
	f.packageReads++
	pkg, ok := f.packages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return pkg, nil
}

func (f *fakeStore) GetPackageComponents(_ context.Context, packageID uuid.UUID) ([]ComponentLine, error) {
	f.componentReads++
	if err := f.componentsErr[packageID]; err != nil {
		return nil, err
	}
	return f.components[packageID], nil
}

func (f *fakeStore) GetProductStock(_ context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	f.stockReads++
	if err := f.stockErr[productID]; err != nil {
		return decimal.Zero, err
	}
	return f.stocks[productID], nil
}

func (f *fakeStore) ListPackages(_ context.Context, includeInactive bool) ([]models.Package, error) {
	out := make([]models.Package, 0, len(f.listOrder))
	for _, id := range f.listOrder {
		pkg := f.packages[id]
		if !includeInactive && !pkg.IsActive {
			continue
		}
		out = append(out, *pkg)
	}
	return out, nil
}

func newTestService(t *testing.T, store Store) (Service, *Cache) {
	t.Helper()
	cache := NewCache()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(store, cache, logg, nil, 5)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, cache
}

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func TestForPackageMinRule(t *testing.T) {
	store := newFakeStore()
	productA := uuid.New()
	productB := uuid.New()
	store.stocks[productA] = dec("20")
	store.stocks[productB] = dec("3")
	pkgID := store.addPackage("Bucket of 6",
		ComponentLine{ProductID: productA, ProductName: "Lager Bottle", Quantity: 6},
		ComponentLine{ProductID: productB, ProductName: "Ice Bucket", Quantity: 1},
	)
	svc, _ := newTestService(t, store)

	result, cached, err := svc.ForPackage(context.Background(), pkgID, false)
	if err != nil {
		t.Fatalf("ForPackage: %v", err)
	}
	if cached {
		t.Fatal("first computation must not report cached")
	}
	if result.MaxSellable != 3 {
		t.Fatalf("expected max sellable 3, got %d", result.MaxSellable)
	}
	// Tie between floor(20/6)=3 and floor(3/1)=3: first in component order wins.
	if result.Bottleneck == nil || result.Bottleneck.ProductID != productA {
		t.Fatalf("expected first-in-order bottleneck on %s, got %+v", productA, result.Bottleneck)
	}
	if len(result.Components) != 2 {
		t.Fatalf("expected 2 breakdown lines, got %d", len(result.Components))
	}
	if result.Components[0].MaxSupported != 3 || result.Components[1].MaxSupported != 3 {
		t.Fatalf("unexpected per-component support: %+v", result.Components)
	}
}

func TestForPackageZeroStockPropagates(t *testing.T) {
	store := newFakeStore()
	productA := uuid.New()
	productB := uuid.New()
	store.stocks[productA] = dec("20")
	store.stocks[productB] = decimal.Zero
	pkgID := store.addPackage("Bucket of 6",
		ComponentLine{ProductID: productA, ProductName: "Lager Bottle", Quantity: 6},
		ComponentLine{ProductID: productB, ProductName: "Ice Bucket", Quantity: 1},
	)
	svc, _ := newTestService(t, store)

	result, _, err := svc.ForPackage(context.Background(), pkgID, false)
	if err != nil {
		t.Fatalf("ForPackage: %v", err)
	}
	if result.MaxSellable != 0 {
		t.Fatalf("expected zero availability, got %d", result.MaxSellable)
	}
	if result.Bottleneck == nil || result.Bottleneck.ProductID != productB {
		t.Fatalf("expected bottleneck on zero-stock component, got %+v", result.Bottleneck)
	}
}

func TestForPackageFractionalStockFloors(t *testing.T) {
	store := newFakeStore()
	gin := uuid.New()
	tonic := uuid.New()
	store.stocks[gin] = dec("0.7")    // liters left in the bottle
	store.stocks[tonic] = dec("10.5") // cans, one opened
	pkgID := store.addPackage("G&T Round",
		ComponentLine{ProductID: gin, ProductName: "Gin", Quantity: 1},
		ComponentLine{ProductID: tonic, ProductName: "Tonic", Quantity: 3},
	)
	svc, _ := newTestService(t, store)

	result, _, err := svc.ForPackage(context.Background(), pkgID, false)
	if err != nil {
		t.Fatalf("ForPackage: %v", err)
	}
	// floor(0.7/1)=0, floor(10.5/3)=3
	if result.MaxSellable != 0 {
		t.Fatalf("expected floored max 0, got %d", result.MaxSellable)
	}
	if result.Components[1].MaxSupported != 3 {
		t.Fatalf("expected tonic to support 3, got %d", result.Components[1].MaxSupported)
	}
}

func TestForPackageEmptyComponentsSellsZero(t *testing.T) {
	store := newFakeStore()
	pkgID := store.addPackage("Phantom Special")
	svc, _ := newTestService(t, store)

	result, _, err := svc.ForPackage(context.Background(), pkgID, false)
	if err != nil {
		t.Fatalf("ForPackage: %v", err)
	}
	if result.MaxSellable != 0 {
		t.Fatalf("package without components must sell zero, got %d", result.MaxSellable)
	}
	if result.Bottleneck != nil {
		t.Fatalf("expected no bottleneck, got %+v", result.Bottleneck)
	}
}

func TestForPackageInvalidComponentExcluded(t *testing.T) {
	store := newFakeStore()
	productA := uuid.New()
	productB := uuid.New()
	store.stocks[productA] = dec("8")
	store.stocks[productB] = dec("100")
	pkgID := store.addPackage("Mixed Platter",
		ComponentLine{ProductID: productA, ProductName: "Wings", Quantity: 4},
		ComponentLine{ProductID: productB, ProductName: "Napkins", Quantity: 0},
	)
	svc, _ := newTestService(t, store)

	result, _, err := svc.ForPackage(context.Background(), pkgID, false)
	if err != nil {
		t.Fatalf("ForPackage: %v", err)
	}
	if result.MaxSellable != 2 {
		t.Fatalf("invalid component must not limit, expected 2 got %d", result.MaxSellable)
	}
	if !result.Components[1].Invalid {
		t.Fatal("zero-quantity component should be flagged invalid")
	}
	if result.Bottleneck == nil || result.Bottleneck.ProductID != productA {
		t.Fatalf("bottleneck should skip invalid component, got %+v", result.Bottleneck)
	}
}

func TestForPackageOnlyInvalidComponentsSellsZero(t *testing.T) {
	store := newFakeStore()
	productA := uuid.New()
	store.stocks[productA] = dec("100")
	pkgID := store.addPackage("Broken Bundle",
		ComponentLine{ProductID: productA, ProductName: "Straws", Quantity: 0},
	)
	svc, _ := newTestService(t, store)

	result, _, err := svc.ForPackage(context.Background(), pkgID, false)
	if err != nil {
		t.Fatalf("ForPackage: %v", err)
	}
	if result.MaxSellable != 0 {
		t.Fatalf("all-invalid package must sell zero, got %d", result.MaxSellable)
	}
	if result.Bottleneck != nil {
		t.Fatalf("expected no bottleneck, got %+v", result.Bottleneck)
	}
}

func TestForPackageNotFound(t *testing.T) {
	svc, _ := newTestService(t, newFakeStore())

	_, _, err := svc.ForPackage(context.Background(), uuid.New(), false)
	if err == nil {
		t.Fatal("expected error for unknown package")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found code, got %v", err)
	}
}

func TestForPackageStoreFailureIsCalculationError(t *testing.T) {
	store := newFakeStore()
	product := uuid.New()
	store.stocks[product] = dec("5")
	store.stockErr[product] = errors.New("connection reset")
	pkgID := store.addPackage("Flaky",
		ComponentLine{ProductID: product, ProductName: "Cola", Quantity: 1},
	)
	svc, _ := newTestService(t, store)

	_, _, err := svc.ForPackage(context.Background(), pkgID, false)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeCalculation {
		t.Fatalf("expected calculation error code, got %v", err)
	}
}

func TestForPackageCacheCorrectness(t *testing.T) {
	store := newFakeStore()
	product := uuid.New()
	store.stocks[product] = dec("12")
	pkgID := store.addPackage("Pitcher",
		ComponentLine{ProductID: product, ProductName: "House Lager", Quantity: 4},
	)
	svc, cache := newTestService(t, store)

	first, cached, err := svc.ForPackage(context.Background(), pkgID, false)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if cached {
		t.Fatal("first call cannot be cached")
	}
	readsAfterFirst := store.packageReads + store.componentReads + store.stockReads

	second, cached, err := svc.ForPackage(context.Background(), pkgID, false)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !cached {
		t.Fatal("second call should be served from cache")
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("cached result differs: %+v vs %+v", first, second)
	}
	if got := store.packageReads + store.componentReads + store.stockReads; got != readsAfterFirst {
		t.Fatalf("cache hit must not touch the store: %d reads before, %d after", readsAfterFirst, got)
	}

	// forceRefresh always re-reads regardless of cache state.
	_, cached, err = svc.ForPackage(context.Background(), pkgID, true)
	if err != nil {
		t.Fatalf("force refresh: %v", err)
	}
	if cached {
		t.Fatal("force refresh must recompute")
	}
	if got := store.packageReads + store.componentReads + store.stockReads; got == readsAfterFirst {
		t.Fatal("force refresh must hit the store")
	}

	// A version bump invalidates without touching entries individually.
	cache.Invalidate()
	_, cached, err = svc.ForPackage(context.Background(), pkgID, false)
	if err != nil {
		t.Fatalf("post-invalidate call: %v", err)
	}
	if cached {
		t.Fatal("invalidated entry must be recomputed")
	}
}

func TestForPackageMonotonicInStock(t *testing.T) {
	store := newFakeStore()
	product := uuid.New()
	store.stocks[product] = dec("9")
	pkgID := store.addPackage("Shot Board",
		ComponentLine{ProductID: product, ProductName: "Tequila", Quantity: 2},
	)
	svc, _ := newTestService(t, store)

	previous := int64(-1)
	for _, stock := range []string{"9", "9.5", "10", "14", "100"} {
		store.stocks[product] = dec(stock)
		result, _, err := svc.ForPackage(context.Background(), pkgID, true)
		if err != nil {
			t.Fatalf("stock %s: %v", stock, err)
		}
		if result.MaxSellable < previous {
			t.Fatalf("max sellable decreased from %d to %d when stock rose to %s", previous, result.MaxSellable, stock)
		}
		previous = result.MaxSellable
	}
}

func TestForAllIsolatesFailures(t *testing.T) {
	store := newFakeStore()
	productA := uuid.New()
	store.stocks[productA] = dec("10")
	healthy := store.addPackage("Healthy",
		ComponentLine{ProductID: productA, ProductName: "Cider", Quantity: 2},
	)
	broken := store.addPackage("Broken",
		ComponentLine{ProductID: uuid.New(), ProductName: "Ghost", Quantity: 1},
	)
	store.componentsErr[broken] = errors.New("corrupt component row")
	alsoHealthy := store.addPackage("Also Healthy",
		ComponentLine{ProductID: productA, ProductName: "Cider", Quantity: 5},
	)
	malformed := store.addPackage("Malformed",
		ComponentLine{ProductID: productA, ProductName: "Cider", Quantity: 0},
	)

	svc, _ := newTestService(t, store)

	results, err := svc.ForAll(context.Background(), BatchOptions{})
	if err != nil {
		t.Fatalf("ForAll must not propagate per-package failures: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if results[healthy].MaxSellable != 5 {
		t.Fatalf("healthy package mis-computed: %+v", results[healthy])
	}
	if results[alsoHealthy].MaxSellable != 2 {
		t.Fatalf("second healthy package mis-computed: %+v", results[alsoHealthy])
	}
	degraded := results[broken]
	if degraded.MaxSellable != 0 || !degraded.Degraded {
		t.Fatalf("broken package should fall back to degraded zero availability: %+v", degraded)
	}
	// A zero-quantity component is a data error, not a failure: the package
	// computes normally and sells zero without the degraded flag.
	if results[malformed].MaxSellable != 0 || results[malformed].Degraded {
		t.Fatalf("malformed package should compute to zero: %+v", results[malformed])
	}
}

func TestForAllSkipsInactiveByDefault(t *testing.T) {
	store := newFakeStore()
	product := uuid.New()
	store.stocks[product] = dec("6")
	active := store.addPackage("On Menu",
		ComponentLine{ProductID: product, ProductName: "Stout", Quantity: 1},
	)
	retired := store.addPackage("Retired",
		ComponentLine{ProductID: product, ProductName: "Stout", Quantity: 1},
	)
	store.packages[retired].IsActive = false

	svc, _ := newTestService(t, store)

	results, err := svc.ForAll(context.Background(), BatchOptions{})
	if err != nil {
		t.Fatalf("ForAll: %v", err)
	}
	if _, ok := results[retired]; ok {
		t.Fatal("inactive package leaked into default batch")
	}
	if _, ok := results[active]; !ok {
		t.Fatal("active package missing from batch")
	}

	results, err = svc.ForAll(context.Background(), BatchOptions{IncludeInactive: true})
	if err != nil {
		t.Fatalf("ForAll include inactive: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both packages, got %d", len(results))
	}
}

func TestSummariesClassifyAgainstBuffer(t *testing.T) {
	store := newFakeStore()
	plenty := uuid.New()
	scarce := uuid.New()
	empty := uuid.New()
	store.stocks[plenty] = dec("100")
	store.stocks[scarce] = dec("3")
	store.stocks[empty] = decimal.Zero
	store.addPackage("Plenty", ComponentLine{ProductID: plenty, ProductName: "Pale Ale", Quantity: 1})
	store.addPackage("Scarce", ComponentLine{ProductID: scarce, ProductName: "Mezcal", Quantity: 1})
	store.addPackage("Empty", ComponentLine{ProductID: empty, ProductName: "Prosecco", Quantity: 1})

	svc, _ := newTestService(t, store)

	summaries, err := svc.Summaries(context.Background(), BatchOptions{})
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(summaries))
	}

	byName := map[string]Summary{}
	for _, summary := range summaries {
		byName[summary.PackageName] = summary
	}
	if byName["Plenty"].Status != enums.AvailabilityStatusAvailable {
		t.Fatalf("unexpected status for plenty: %s", byName["Plenty"].Status)
	}
	if byName["Scarce"].Status != enums.AvailabilityStatusLowStock {
		t.Fatalf("unexpected status for scarce: %s", byName["Scarce"].Status)
	}
	if byName["Empty"].Status != enums.AvailabilityStatusOutOfStock {
		t.Fatalf("unexpected status for empty: %s", byName["Empty"].Status)
	}
	if byName["Empty"].Bottleneck == nil || byName["Empty"].Bottleneck.ProductName != "Prosecco" {
		t.Fatalf("expected compact bottleneck on empty package: %+v", byName["Empty"].Bottleneck)
	}
}

func TestCacheStatsSurface(t *testing.T) {
	store := newFakeStore()
	product := uuid.New()
	store.stocks[product] = dec("4")
	pkgID := store.addPackage("Single",
		ComponentLine{ProductID: product, ProductName: "Ale", Quantity: 1},
	)
	svc, cache := newTestService(t, store)

	stats := svc.CacheStats()
	if stats.Size != 0 || stats.Version != 0 {
		t.Fatalf("fresh cache should be empty at version 0: %+v", stats)
	}

	if _, _, err := svc.ForPackage(context.Background(), pkgID, false); err != nil {
		t.Fatalf("ForPackage: %v", err)
	}
	stats = svc.CacheStats()
	if stats.Size != 1 {
		t.Fatalf("expected one cached entry, got %d", stats.Size)
	}

	cache.Invalidate()
	stats = svc.CacheStats()
	if stats.Size != 0 || stats.Version != 1 {
		t.Fatalf("invalidate should clear entries and bump version: %+v", stats)
	}
}
