package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cantina-pos/cantina-backend/api/controllers"
	"github.com/cantina-pos/cantina-backend/api/middleware"
	"github.com/cantina-pos/cantina-backend/internal/availability"
	"github.com/cantina-pos/cantina-backend/internal/inventory"
	"github.com/cantina-pos/cantina-backend/pkg/config"
	"github.com/cantina-pos/cantina-backend/pkg/logger"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           controllers.Pinger
	Redis        controllers.Pinger
	Availability availability.Service
	Inventory    inventory.Service
	Metrics      prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/packages", func(r chi.Router) {
			r.Get("/availability", controllers.AllPackageAvailability(deps.Availability, deps.Logger))
			r.Get("/availability/cache-stats", controllers.CacheStats(deps.Availability, deps.Logger))
			r.Get("/{packageId}/availability", controllers.PackageAvailability(deps.Availability, deps.Logger))
		})
		r.Post("/inventory/adjustments", controllers.AdjustStock(deps.Inventory, deps.Logger))
	})

	return r
}
