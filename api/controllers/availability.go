package controllers

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cantina-pos/cantina-backend/api/responses"
	"github.com/cantina-pos/cantina-backend/api/validators"
	"github.com/cantina-pos/cantina-backend/internal/availability"
	"github.com/cantina-pos/cantina-backend/pkg/enums"
	pkgerrors "github.com/cantina-pos/cantina-backend/pkg/errors"
	"github.com/cantina-pos/cantina-backend/pkg/logger"
	"github.com/cantina-pos/cantina-backend/pkg/types"
)

// PackageAvailability serves the full availability breakdown for one package.
func PackageAvailability(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "availability service unavailable"))
			return
		}

		packageID, err := uuid.Parse(chi.URLParam(r, "packageId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid package id"))
			return
		}

		forceRefresh, err := validators.ParseQueryBool(r, "force_refresh", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		start := time.Now()
		result, cached, err := svc.ForPackage(r.Context(), packageID, forceRefresh)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessMeta(w, result, &types.ResponseMeta{
			Timestamp:  time.Now().UTC(),
			DurationMS: time.Since(start).Milliseconds(),
			Cached:     &cached,
		})
	}
}

// AllPackageAvailability serves the batch endpoint in either the summary or
// the full projection.
func AllPackageAvailability(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "availability service unavailable"))
			return
		}

		includeInactive, err := validators.ParseQueryBool(r, "include_inactive", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		forceRefresh, err := validators.ParseQueryBool(r, "force_refresh", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		format, err := validators.ParseQueryFormat(r, "format")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		opts := availability.BatchOptions{
			IncludeInactive: includeInactive,
			ForceRefresh:    forceRefresh,
		}

		start := time.Now()
		var payload any
		var count int
		switch format {
		case enums.AvailabilityFormatFull:
			results, err := svc.ForAll(r.Context(), opts)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			full := make([]*availability.Result, 0, len(results))
			for _, result := range results {
				full = append(full, result)
			}
			sortResults(full)
			payload = full
			count = len(full)
		default:
			summaries, err := svc.Summaries(r.Context(), opts)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			payload = summaries
			count = len(summaries)
		}

		stats := svc.CacheStats()
		responses.WriteSuccessMeta(w, payload, &types.ResponseMeta{
			Timestamp:  time.Now().UTC(),
			DurationMS: time.Since(start).Milliseconds(),
			Count:      &count,
			CacheStats: &types.CacheMeta{Size: stats.Size, Version: stats.Version},
		})
	}
}

// sortResults restores package list order after the map round-trip.
func sortResults(results []*availability.Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].PackageName == results[j].PackageName {
			return results[i].PackageID.String() < results[j].PackageID.String()
		}
		return results[i].PackageName < results[j].PackageName
	})
}

// CacheStats exposes the availability cache counters.
func CacheStats(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "availability service unavailable"))
			return
		}
		responses.WriteSuccess(w, svc.CacheStats())
	}
}
