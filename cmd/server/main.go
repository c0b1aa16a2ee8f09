package main

import (
	"context"
	"errors"
	"fmt"
	"freight-tariff-service/internal/adapters/cache"
	"freight-tariff-service/internal/adapters/distance"
	"freight-tariff-service/internal/adapters/events"
	"freight-tariff-service/internal/adapters/fleet"
	"freight-tariff-service/internal/adapters/repositories"
	"freight-tariff-service/internal/adapters/tariffs"
	"freight-tariff-service/internal/api"
	"freight-tariff-service/internal/config"
	"freight-tariff-service/internal/platform/db"
	"freight-tariff-service/internal/ports"
	"freight-tariff-service/internal/services"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

// main is the application composition root.
// It wires concrete adapters behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

type stores struct {
	repo     ports.ShipmentRepository
	catalog  ports.TariffCatalog
	fleet    ports.FleetCapacityOracle
	distance ports.DistanceCache
	sinks    []ports.TrackingSink
	closers  []func()
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		for i := len(st.closers) - 1; i >= 0; i-- {
			st.closers[i]()
		}
	}()

	var primary ports.DistanceProvider
	if cfg.ORSAPIKey != "" {
		ors, err := distance.NewORSDistanceProvider(cfg.ORSAPIKey, cfg.ORSBaseURL, st.distance, logger)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		primary = ors
	} else {
		logger.Warn("ORS_API_KEY not set, distances are straight-line only")
	}
	distances := distance.NewFallbackProvider(primary, cfg.DistanceTimeout, logger)

	sinks := append([]ports.TrackingSink{events.NewLogSink(logger)}, st.sinks...)
	if cfg.KafkaBroker != "" {
		kafka := events.NewKafkaSink(cfg.KafkaBroker, cfg.KafkaTopic)
		defer kafka.Close()
		sinks = append(sinks, kafka)
	}
	dispatcher := events.NewDispatcher(cfg.TrackingTimeout, logger, sinks...)

	costs := services.NewCostCalculator(st.catalog, st.fleet, cfg.FleetTimeout)
	estimator := services.NewRouteEstimator(distances, st.catalog, costs, cfg.Pricing, cfg.TariffTimeout, logger)
	shipments := services.NewShipmentService(st.repo, estimator, costs, dispatcher)
	lifecycle := services.NewLegLifecycle(st.repo, st.fleet, costs, dispatcher, cfg.FleetTimeout, logger)

	router := api.NewRouter(api.Services{
		Shipments: shipments,
		Legs:      shipments,
		Lifecycle: lifecycle,
		Quotes:    costs,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("run: listen: %w", err)
		}
	case <-stop:
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("run: shutdown: %w", err)
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("tracking events still pending at shutdown", "error", err)
	}
	logger.Info("server stopped")
	return nil
}

// openStores picks Postgres-backed stores when DATABASE_URL is set and
// in-memory stores seeded from SEED_PATH otherwise.
func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (*stores, error) {
	st := &stores{}

	if cfg.DatabaseURL != "" {
		pool, err := db.OpenPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open stores: %w", err)
		}
		st.closers = append(st.closers, pool.Close)

		st.repo = repositories.NewPgShipmentRepository(pool)
		st.catalog = tariffs.NewPgCatalog(pool)
		st.fleet = fleet.NewPgFleet(pool)
		st.sinks = append(st.sinks, events.NewPgSink(pool))
		logger.Info("using postgres stores")
	} else {
		seed, err := repositories.LoadSeedFromJSON(cfg.SeedPath)
		if err != nil {
			return nil, fmt.Errorf("open stores: %w", err)
		}
		catalog := tariffs.NewStaticCatalog()
		vehicles := fleet.NewStaticFleet()
		if err := seed.Apply(ctx, catalog, vehicles); err != nil {
			return nil, fmt.Errorf("open stores: %w", err)
		}

		st.repo = repositories.NewMemoryShipmentRepository()
		st.catalog = catalog
		st.fleet = vehicles
		logger.Info("using in-memory stores", "seed", cfg.SeedPath,
			"tariffs", len(seed.Tariffs), "vehicles", len(seed.Vehicles))
	}

	if cfg.FleetServiceURL != "" {
		client, err := fleet.NewHTTPClient(cfg.FleetServiceURL, cfg.FleetTimeout)
		if err != nil {
			return nil, fmt.Errorf("open stores: %w", err)
		}
		st.fleet = client
	}

	switch {
	case cfg.RedisURL != "":
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("open stores: %w", err)
		}
		st.closers = append(st.closers, func() { client.Close() })
		st.distance = cache.NewRedisDistanceCache(client, cfg.RedisTTL)
	case cfg.DatabaseURL != "":
		sqlDB, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open stores: %w", err)
		}
		st.closers = append(st.closers, func() { sqlDB.Close() })
		st.distance = cache.NewSQLDistanceCache(sqlDB)
	}

	return st, nil
}
