package availability

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cantina-pos/cantina-backend/pkg/enums"
)

// ComponentAvailability is one line of the per-component breakdown: how many
// package units this component alone could support.
type ComponentAvailability struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	RequiredQty  int             `json:"required_quantity"`
	MaxSupported int64           `json:"max_supported"`
	ChoiceGroup  *string         `json:"choice_group,omitempty"`
	// Invalid marks a component with a non-positive required quantity. Such
	// lines are reported but excluded from the limiting calculation.
	Invalid bool `json:"invalid,omitempty"`
}

// Bottleneck describes the component limiting a package's sellable quantity.
type Bottleneck struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	RequiredQty  int             `json:"required_quantity"`
}

// Result is the full availability computation for one package.
type Result struct {
	PackageID   uuid.UUID               `json:"package_id"`
	PackageName string                  `json:"package_name"`
	MaxSellable int64                   `json:"max_sellable"`
	Bottleneck  *Bottleneck             `json:"bottleneck,omitempty"`
	Components  []ComponentAvailability `json:"components"`
	ComputedAt  time.Time               `json:"computed_at"`
	// Degraded flags a zero-availability fallback written in place of a
	// package whose batch computation failed.
	Degraded bool `json:"degraded,omitempty"`
}

// SummaryBottleneck is the compact descriptor attached to list views.
type SummaryBottleneck struct {
	ProductName  string          `json:"product_name"`
	CurrentStock decimal.Decimal `json:"current_stock"`
}

// Summary is the list-view projection of a Result.
type Summary struct {
	PackageID   uuid.UUID                `json:"package_id"`
	PackageName string                   `json:"package_name"`
	MaxSellable int64                    `json:"max_sellable"`
	Status      enums.AvailabilityStatus `json:"status"`
	Bottleneck  *SummaryBottleneck       `json:"bottleneck,omitempty"`
}

// CacheStats reports the cache observability surface.
type CacheStats struct {
	Size    int    `json:"size"`
	Version uint64 `json:"version"`
}

// BatchOptions selects the population and cache posture for batch runs.
type BatchOptions struct {
	IncludeInactive bool
	ForceRefresh    bool
}
