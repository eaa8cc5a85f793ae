package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cantina-pos/cantina-backend/pkg/enums"
	pkgerrors "github.com/cantina-pos/cantina-backend/pkg/errors"
)

// ParseQueryBool reads an optional boolean query parameter, defaulting when
// absent and rejecting anything strconv cannot parse.
func ParseQueryBool(r *http.Request, key string, defaultVal bool) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a boolean").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// ParseQueryInt reads an optional bounded integer query parameter.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryFormat reads the availability projection selector, defaulting to
// the summary projection.
func ParseQueryFormat(r *http.Request, key string) (enums.AvailabilityFormat, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	format, err := enums.ParseAvailabilityFormat(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid format").WithDetails(map[string]any{"field": key, "allowed": []string{"summary", "full"}})
	}
	return format, nil
}
