package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cantina-pos/cantina-backend/api/responses"
	"github.com/cantina-pos/cantina-backend/api/validators"
	"github.com/cantina-pos/cantina-backend/internal/inventory"
	pkgerrors "github.com/cantina-pos/cantina-backend/pkg/errors"
	"github.com/cantina-pos/cantina-backend/pkg/logger"
)

type adjustStockRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	// Delta is a signed decimal string; fractional adjustments are routine
	// (pouring 0.75 liters off a keg).
	Delta  string  `json:"delta" validate:"required"`
	Reason *string `json:"reason,omitempty"`
}

// AdjustStock applies a signed stock delta through the row-locked adjustment
// path. This is the write side the availability engine estimates against.
func AdjustStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		delta, err := decimal.NewFromString(payload.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delta").WithDetails(map[string]any{"field": "delta"}))
			return
		}

		result, err := svc.AdjustStock(r.Context(), productID, delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
