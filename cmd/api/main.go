package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cantina-pos/cantina-backend/api/routes"
	"github.com/cantina-pos/cantina-backend/internal/availability"
	"github.com/cantina-pos/cantina-backend/internal/inventory"
	"github.com/cantina-pos/cantina-backend/internal/stocksignal"
	"github.com/cantina-pos/cantina-backend/pkg/config"
	"github.com/cantina-pos/cantina-backend/pkg/db"
	"github.com/cantina-pos/cantina-backend/pkg/logger"
	"github.com/cantina-pos/cantina-backend/pkg/metrics"
	"github.com/cantina-pos/cantina-backend/pkg/migrate"
	"github.com/cantina-pos/cantina-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	availabilityMetrics := metrics.NewAvailabilityMetrics(registry)

	cache := availability.NewCache()
	repo := availability.NewRepository(dbClient.DB())

	availabilityService, err := availability.NewService(repo, cache, logg, availabilityMetrics, cfg.Availability.LowStockBuffer)
	if err != nil {
		logg.Error(context.Background(), "failed to create availability service", err)
		os.Exit(1)
	}

	// Redis is optional: a single instance gets correct invalidation from
	// the synchronous cache bump alone.
	var redisClient *redis.Client
	var notifier inventory.Notifier
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()

		publisher, err := stocksignal.NewPublisher(redisClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create stock publisher", err)
			os.Exit(1)
		}
		notifier = publisher

		subscriber, err := stocksignal.NewSubscriber(redisClient, cache, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create stock subscriber", err)
			os.Exit(1)
		}
		go func() {
			if err := subscriber.Run(context.Background()); err != nil && err != context.Canceled {
				logg.Error(context.Background(), "stock subscriber stopped", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, cross-instance cache invalidation disabled")
	}

	inventoryService, err := inventory.NewService(dbClient, cache, notifier, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	deps := routes.Deps{
		Config:       cfg,
		Logger:       logg,
		DB:           dbClient,
		Availability: availabilityService,
		Inventory:    inventoryService,
		Metrics:      registry,
	}
	if redisClient != nil {
		deps.Redis = redisClient
	}

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(deps),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
