package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/calderco/stockroom-backend/api/routes"
	"github.com/calderco/stockroom-backend/internal/locations"
	"github.com/calderco/stockroom-backend/internal/orders"
	"github.com/calderco/stockroom-backend/internal/sequences"
	"github.com/calderco/stockroom-backend/internal/shipments"
	"github.com/calderco/stockroom-backend/internal/stock"
	"github.com/calderco/stockroom-backend/internal/transfers"
	"github.com/calderco/stockroom-backend/internal/units"
	"github.com/calderco/stockroom-backend/pkg/config"
	"github.com/calderco/stockroom-backend/pkg/db"
	"github.com/calderco/stockroom-backend/pkg/instance"
	"github.com/calderco/stockroom-backend/pkg/logger"
	"github.com/calderco/stockroom-backend/pkg/metrics"
	"github.com/calderco/stockroom-backend/pkg/migrate"
	"github.com/calderco/stockroom-backend/pkg/outbox"
	"github.com/calderco/stockroom-backend/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(registry)

	gormDB := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)
	stockRepo := stock.NewRepository(gormDB)
	locationRepo := locations.NewRepository(gormDB)

	unitsService, err := units.NewService(units.NewRepository(gormDB), dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create units service", err)
		os.Exit(1)
	}

	stockService, err := stock.NewService(stockRepo, dbClient, outboxService, unitsService, engineMetrics, cfg.FeatureFlags.BackorderAutoFill)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}

	locationService, err := locations.NewService(locationRepo, stockService, stockRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create location service", err)
		os.Exit(1)
	}

	sequenceService, err := sequences.NewService(sequences.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create sequence service", err)
		os.Exit(1)
	}

	transferService, err := transfers.NewService(transfers.NewRepository(gormDB), stockService, stockRepo, locationRepo, sequenceService, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create transfer service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.NewRepository(gormDB), stockService, stockRepo, unitsService, sequenceService, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	shipmentService, err := shipments.NewService(shipments.NewRepository(gormDB), unitsService, stockService, stockRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipment service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			locationService,
			stockService,
			transferService,
			orderService,
			shipmentService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
