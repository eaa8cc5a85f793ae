package enums

import "fmt"

// AvailabilityFormat selects the projection returned by the batch endpoint.
type AvailabilityFormat string

const (
	AvailabilityFormatSummary AvailabilityFormat = "summary"
	AvailabilityFormatFull    AvailabilityFormat = "full"
)

var validAvailabilityFormats = []AvailabilityFormat{
	AvailabilityFormatSummary,
	AvailabilityFormatFull,
}

// String implements fmt.Stringer.
func (f AvailabilityFormat) String() string {
	return string(f)
}

// IsValid reports whether the value is a known AvailabilityFormat.
func (f AvailabilityFormat) IsValid() bool {
	for _, candidate := range validAvailabilityFormats {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseAvailabilityFormat converts raw input into an AvailabilityFormat.
// Empty input defaults to the summary projection.
func ParseAvailabilityFormat(value string) (AvailabilityFormat, error) {
	if value == "" {
		return AvailabilityFormatSummary, nil
	}
	for _, candidate := range validAvailabilityFormats {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid availability format %q", value)
}
