package inventory

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cantina-pos/cantina-backend/pkg/db"
	"github.com/cantina-pos/cantina-backend/pkg/db/models"
	pkgerrors "github.com/cantina-pos/cantina-backend/pkg/errors"
	"github.com/cantina-pos/cantina-backend/pkg/logger"
)

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate() { f.calls++ }

type fakeNotifier struct {
	products []uuid.UUID
	err      error
}

func (f *fakeNotifier) StockChanged(_ context.Context, productID uuid.UUID) error {
	f.products = append(f.products, productID)
	return f.err
}

func newTestClient(t *testing.T) *db.Client {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate products: %v", err)
	}
	return db.NewFromConn(conn)
}

func seedProduct(t *testing.T, client *db.Client, stock string) uuid.UUID {
	t.Helper()
	product := models.Product{
		ID:            uuid.New(),
		Name:          "Keg",
		SKU:           "sku-" + uuid.NewString()[:8],
		Unit:          "liter",
		StockQuantity: decimal.RequireFromString(stock),
	}
	if err := client.DB().Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

func newService(t *testing.T, client *db.Client, cache Invalidator, notifier Notifier) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(client, cache, notifier, logg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestAdjustStockAppliesFractionalDelta(t *testing.T) {
	client := newTestClient(t)
	productID := seedProduct(t, client, "10.5")
	cache := &fakeInvalidator{}
	notifier := &fakeNotifier{}
	svc := newService(t, client, cache, notifier)

	result, err := svc.AdjustStock(context.Background(), productID, decimal.RequireFromString("-0.7"))
	if err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}
	if !result.Before.Equal(decimal.RequireFromString("10.5")) {
		t.Fatalf("unexpected before: %s", result.Before)
	}
	if !result.After.Equal(decimal.RequireFromString("9.8")) {
		t.Fatalf("unexpected after: %s", result.After)
	}

	var product models.Product
	if err := client.DB().First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if !product.StockQuantity.Equal(decimal.RequireFromString("9.8")) {
		t.Fatalf("persisted stock mismatch: %s", product.StockQuantity)
	}

	if cache.calls != 1 {
		t.Fatalf("expected one cache invalidation, got %d", cache.calls)
	}
	if len(notifier.products) != 1 || notifier.products[0] != productID {
		t.Fatalf("expected one notification for %s, got %v", productID, notifier.products)
	}
}

func TestAdjustStockRejectsOversell(t *testing.T) {
	client := newTestClient(t)
	productID := seedProduct(t, client, "2")
	cache := &fakeInvalidator{}
	svc := newService(t, client, cache, nil)

	_, err := svc.AdjustStock(context.Background(), productID, decimal.NewFromInt(-3))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	// Stock must be untouched and the cache must not churn on a rejection.
	var product models.Product
	if err := client.DB().First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if !product.StockQuantity.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("rejected adjustment mutated stock: %s", product.StockQuantity)
	}
	if cache.calls != 0 {
		t.Fatalf("cache invalidated on rejected adjustment")
	}
}

func TestAdjustStockToExactlyZero(t *testing.T) {
	client := newTestClient(t)
	productID := seedProduct(t, client, "2")
	svc := newService(t, client, &fakeInvalidator{}, nil)

	result, err := svc.AdjustStock(context.Background(), productID, decimal.NewFromInt(-2))
	if err != nil {
		t.Fatalf("draining to zero must succeed: %v", err)
	}
	if !result.After.IsZero() {
		t.Fatalf("expected zero, got %s", result.After)
	}
}

func TestAdjustStockUnknownProduct(t *testing.T) {
	client := newTestClient(t)
	svc := newService(t, client, &fakeInvalidator{}, nil)

	_, err := svc.AdjustStock(context.Background(), uuid.New(), decimal.NewFromInt(1))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestAdjustStockZeroDelta(t *testing.T) {
	client := newTestClient(t)
	productID := seedProduct(t, client, "5")
	svc := newService(t, client, &fakeInvalidator{}, nil)

	_, err := svc.AdjustStock(context.Background(), productID, decimal.Zero)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdjustStockNotifierFailureIsNonFatal(t *testing.T) {
	client := newTestClient(t)
	productID := seedProduct(t, client, "5")
	cache := &fakeInvalidator{}
	notifier := &fakeNotifier{err: errors.New("redis down")}
	svc := newService(t, client, cache, notifier)

	result, err := svc.AdjustStock(context.Background(), productID, decimal.NewFromInt(1))
	if err != nil {
		t.Fatalf("notifier failure must not fail the adjustment: %v", err)
	}
	if !result.After.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("unexpected after: %s", result.After)
	}
	if cache.calls != 1 {
		t.Fatalf("local invalidation must still run, got %d calls", cache.calls)
	}
}
