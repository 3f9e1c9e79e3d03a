package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kevmwangi/shoplink-backend/api/controllers"
	"github.com/kevmwangi/shoplink-backend/api/routes"
	"github.com/kevmwangi/shoplink-backend/internal/address"
	"github.com/kevmwangi/shoplink-backend/internal/cart"
	"github.com/kevmwangi/shoplink-backend/internal/fulfillment"
	"github.com/kevmwangi/shoplink-backend/internal/listings"
	"github.com/kevmwangi/shoplink-backend/internal/notifications"
	"github.com/kevmwangi/shoplink-backend/internal/orders"
	"github.com/kevmwangi/shoplink-backend/internal/products"
	"github.com/kevmwangi/shoplink-backend/internal/settlement"
	"github.com/kevmwangi/shoplink-backend/pkg/config"
	"github.com/kevmwangi/shoplink-backend/pkg/db"
	"github.com/kevmwangi/shoplink-backend/pkg/logger"
	"github.com/kevmwangi/shoplink-backend/pkg/metrics"
	"github.com/kevmwangi/shoplink-backend/pkg/migrate"
	"github.com/kevmwangi/shoplink-backend/pkg/outbox"
	"github.com/kevmwangi/shoplink-backend/pkg/payments"
	pkgredis "github.com/kevmwangi/shoplink-backend/pkg/redis"
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

	redisClient, err := pkgredis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	paymentsClient, err := payments.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap payments client", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()
	zlog := logg.Zerolog()

	cartRepo := cart.NewRepository(gdb)
	orderRepo := orders.NewRepository(gdb)
	listingRepo := listings.NewRepository(gdb)
	productRepo := products.NewRepository(gdb)
	notificationRepo := notifications.NewRepository(gdb)

	outboxService := outbox.NewService(outbox.NewRepository(gdb), logg)

	registry := prometheus.NewRegistry()
	settlementMetrics := metrics.NewSettlementMetrics(registry)

	addressService, err := address.NewService(gdb)
	if err != nil {
		fatal(logg, "address service", err)
	}
	listingService, err := listings.NewService(listingRepo, dbClient, zlog)
	if err != nil {
		fatal(logg, "listing service", err)
	}
	cartService, err := cart.NewService(cartRepo, dbClient, listingRepo, zlog)
	if err != nil {
		fatal(logg, "cart service", err)
	}
	notificationService, err := notifications.NewService(notificationRepo, zlog)
	if err != nil {
		fatal(logg, "notification service", err)
	}
	productService, err := products.NewService(productRepo, listingRepo, dbClient, zlog)
	if err != nil {
		fatal(logg, "product service", err)
	}
	orderService, err := orders.NewService(orderRepo, listingRepo)
	if err != nil {
		fatal(logg, "order service", err)
	}
	settlementService, err := settlement.NewService(settlement.Config{
		CartRepo:  cartRepo,
		OrderRepo: orderRepo,
		Listings:  listingRepo,
		Proxy:     listingService,
		Addresses: addressService,
		Payments:  paymentsClient,
		Outbox:    outboxService,
		Notify:    notificationService,
		Tx:        dbClient,
		Metrics:   settlementMetrics,
		Logger:    logg,
	})
	if err != nil {
		fatal(logg, "settlement service", err)
	}
	fulfillmentService, err := fulfillment.NewService(orderRepo, listingRepo, outboxService, notificationService, dbClient, logg)
	if err != nil {
		fatal(logg, "fulfillment service", err)
	}

	handler := routes.NewRouter(routes.Deps{
		Config: cfg,
		Logger: logg,
		Redis:  redisClient,
		HealthChecks: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		Registry:      registry,
		Addresses:     addressService,
		Cart:          cartService,
		Settlement:    settlementService,
		Fulfillment:   fulfillmentService,
		Orders:        orderService,
		Products:      productService,
		Listings:      listingService,
		Notifications: notificationService,
	})

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown error", err)
		}
	}()

	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"port": cfg.App.Port,
	})
	logg.Info(startCtx, "starting api server")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shut down gracefully")
}

func fatal(logg *logger.Logger, what string, err error) {
	logg.Error(context.Background(), "failed to create "+what, err)
	os.Exit(1)
}
