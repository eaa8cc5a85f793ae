package enums

import "fmt"

// AvailabilityStatus classifies a package's sellable quantity for list views.
type AvailabilityStatus string

const (
	AvailabilityStatusAvailable  AvailabilityStatus = "available"
	AvailabilityStatusLowStock   AvailabilityStatus = "low_stock"
	AvailabilityStatusOutOfStock AvailabilityStatus = "out_of_stock"
)

var validAvailabilityStatuses = []AvailabilityStatus{
	AvailabilityStatusAvailable,
	AvailabilityStatusLowStock,
	AvailabilityStatusOutOfStock,
}

// String implements fmt.Stringer.
func (s AvailabilityStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AvailabilityStatus.
func (s AvailabilityStatus) IsValid() bool {
	for _, candidate := range validAvailabilityStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAvailabilityStatus converts raw input into an AvailabilityStatus.
func ParseAvailabilityStatus(value string) (AvailabilityStatus, error) {
	for _, candidate := range validAvailabilityStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid availability status %q", value)
}

// ClassifyAvailability maps a max sellable quantity onto a status given the
// configured low stock buffer.
func ClassifyAvailability(maxSellable int64, lowStockBuffer int) AvailabilityStatus {
	switch {
	case maxSellable <= 0:
		return AvailabilityStatusOutOfStock
	case maxSellable <= int64(lowStockBuffer):
		return AvailabilityStatusLowStock
	default:
		return AvailabilityStatusAvailable
	}
}
