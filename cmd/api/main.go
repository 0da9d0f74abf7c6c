package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cycle3/supplysync-backend/api/controllers"
	"github.com/cycle3/supplysync-backend/api/routes"
	"github.com/cycle3/supplysync-backend/internal/fulfillment"
	"github.com/cycle3/supplysync-backend/internal/links"
	"github.com/cycle3/supplysync-backend/internal/purchaseorders"
	"github.com/cycle3/supplysync-backend/internal/quotes"
	"github.com/cycle3/supplysync-backend/internal/suppliers"
	"github.com/cycle3/supplysync-backend/pkg/config"
	"github.com/cycle3/supplysync-backend/pkg/db"
	"github.com/cycle3/supplysync-backend/pkg/logger"
	"github.com/cycle3/supplysync-backend/pkg/metrics"
	"github.com/cycle3/supplysync-backend/pkg/migrate"
	"github.com/cycle3/supplysync-backend/pkg/outbox"
	"github.com/cycle3/supplysync-backend/pkg/redis"
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

	supplierRepo := suppliers.NewRepository(dbClient.DB())
	linkRepo := links.NewRepository(dbClient.DB())
	poRepo := purchaseorders.NewRepository(dbClient.DB())
	quoteRepo := quotes.NewRepository(dbClient.DB())
	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()))

	supplierSvc, err := suppliers.NewService(supplierRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create supplier service", err)
		os.Exit(1)
	}

	linkSvc, err := links.NewService(linkRepo, supplierRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create link service", err)
		os.Exit(1)
	}

	poSvc, err := purchaseorders.NewService(poRepo, dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase order service", err)
		os.Exit(1)
	}

	quoteSvc, err := quotes.NewService(quoteRepo, supplierRepo, linkSvc, quotes.CSVExtractor{}, dbClient, outboxSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create quote service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	plannerMetrics := metrics.NewPlannerMetrics(registry)

	fulfillmentSvc, err := fulfillment.NewService(
		linkRepo,
		poRepo,
		dbClient,
		outboxSvc,
		fulfillment.RedisLocker{Client: redisClient},
		redisClient,
		cfg.Planner,
		logg,
		plannerMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create fulfillment service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			SupplierService:      supplierSvc,
			LinkService:          linkSvc,
			PurchaseOrderService: poSvc,
			QuoteService:         quoteSvc,
			ProductResolver:      quotes.NewHistoryResolver(dbClient.DB()),
			FulfillmentService:   fulfillmentSvc,
			HealthDeps: map[string]controllers.Pinger{
				"postgres": dbClient,
				"redis":    redisClient,
			},
			MetricsRegistry: registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
