package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkout-engine/internal/core/cache"
	"checkout-engine/internal/core/config"
	"checkout-engine/internal/core/database"
	"checkout-engine/internal/core/httpclient"
	"checkout-engine/internal/core/logger"
	"checkout-engine/internal/core/metrics"
	"checkout-engine/internal/core/proxy"
	"checkout-engine/internal/core/server"
	"checkout-engine/internal/core/wompi"
	cartadapters "checkout-engine/internal/features/cart/adapters"
	carthandler "checkout-engine/internal/features/cart/handler"
	cartservice "checkout-engine/internal/features/cart/service"
	catalogadapters "checkout-engine/internal/features/catalog/adapters"
	cataloghandler "checkout-engine/internal/features/catalog/handler"
	catalogservice "checkout-engine/internal/features/catalog/service"
	checkoutadapters "checkout-engine/internal/features/checkout/adapters"
	checkouthandler "checkout-engine/internal/features/checkout/handler"
	checkoutservice "checkout-engine/internal/features/checkout/service"
	orderadapters "checkout-engine/internal/features/orders/adapters"
	orderhandler "checkout-engine/internal/features/orders/handler"
	orderservice "checkout-engine/internal/features/orders/service"
	paymentadapters "checkout-engine/internal/features/payments/adapters"
	paymenthandler "checkout-engine/internal/features/payments/handler"
	paymentports "checkout-engine/internal/features/payments/ports"
	paymentservice "checkout-engine/internal/features/payments/service"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
)

// @title Checkout Engine API
// @version 1.0
// @description Session scoped cart, checkout step machine and payment orchestration with a Wompi-compatible gateway.
// @contact.name API Support
// @contact.email support@checkout-engine.dev
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.String("backend_mode", cfg.Backend.Mode),
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStart()

	// Initialize Redis and run Health Check
	redisCache, err := cache.NewRedisAdapter(cfg.Redis.URL)
	if err != nil {
		l.Fatal("Invalid Redis configuration", zap.Error(err))
	}
	if err := redisCache.Ping(startCtx); err != nil {
		l.Fatal("Redis Health Check Failed", zap.Error(err))
	}
	l.Info("Redis connection verified")

	closers := []io.Closer{redisCache}
	checks := map[string]server.HealthCheck{"redis": redisCache.Ping}

	egress := proxy.FromConfig(cfg.Proxy)
	gatewayClient := wompi.NewClient(cfg.Gateway, egress)
	if err := gatewayClient.HealthCheck(startCtx); err != nil {
		// The storefront can still browse and fill the checkout; payments fail with UNAVAILABLE.
		l.Warn("Payment gateway Health Check Failed", zap.Error(err))
	}

	m := metrics.New()

	// Initialize Cart & Checkout
	cartSvc := cartservice.NewCartService(cartadapters.NewRedisLedgerStore(redisCache, cfg.Checkout.SessionTTL))
	checkoutSvc := checkoutservice.NewCheckoutService(
		checkoutadapters.NewRedisContainerStore(redisCache, cfg.Checkout.SessionTTL),
		cartSvc,
	)
	cartSvc.Observe(checkoutSvc)

	handlers := []server.Routes{
		carthandler.NewCartHandler(cartSvc),
		checkouthandler.NewCheckoutHandler(checkoutSvc),
	}

	// Initialize the Backend boundary
	var backend paymentports.Backend
	switch cfg.Backend.Mode {
	case config.BackendModeLocal:
		db, err := database.New(cfg.Database)
		if err != nil {
			l.Fatal("Failed to open database", zap.Error(err))
		}
		closers = append(closers, db)
		checks["database"] = db.Ping

		repo := orderadapters.NewGormRepository(db.DB(context.Background()))
		if cfg.Database.AutoMigrate {
			if err := repo.Migrate(startCtx); err != nil {
				l.Fatal("Database migration failed", zap.Error(err))
			}
		}

		catalogSvc := catalogservice.NewCatalogService(repo, catalogadapters.NewRedisListingCache(redisCache), cfg.Catalog.CacheTTL)
		if cfg.Catalog.SeedFile != "" {
			n, err := catalogSvc.Import(startCtx, cfg.Catalog.SeedFile)
			if err != nil {
				l.Fatal("Catalog seed failed", zap.String("file", cfg.Catalog.SeedFile), zap.Error(err))
			}
			l.Info("Catalog seeded", zap.Int("products", n))
		}

		charger := orderadapters.NewWompiCharger(gatewayClient, cfg.Gateway.RedirectURL)
		orderSvc := orderservice.NewOrderService(db, repo, charger, cfg.Gateway.Currency)
		backend = paymentadapters.NewLocalBackendAdapter(orderSvc)

		handlers = append(handlers,
			orderhandler.NewOrderHandler(orderSvc, gatewayClient, cfg.Backend.APIKey, cfg.Backend.OrderFunction),
			cataloghandler.NewCatalogHandler(catalogSvc, cfg.Backend.APIKey),
		)
		l.Info("Local backend ready", zap.String("db_driver", cfg.Database.Driver))

	case config.BackendModeRemote:
		backend = paymentadapters.NewBackendRPCAdapter(httpclient.NewClient(cfg.Gateway.Timeout, egress), cfg.Backend)
		l.Info("Remote backend configured", zap.String("url", cfg.Backend.URL))
	}

	// Initialize Payments
	gateway := paymentadapters.NewWompiAdapter(gatewayClient)
	poller := paymentservice.NewStatusPoller(gateway, cfg.Checkout.PollInterval, m)
	paymentSvc := paymentservice.NewPaymentService(
		gateway,
		backend,
		cartSvc,
		checkoutSvc,
		redisCache,
		poller,
		m,
		cfg.Checkout.SubmitLockTTL,
	)
	checkoutSvc.Observe(paymentSvc)
	handlers = append(handlers, paymenthandler.NewPaymentHandler(paymentSvc))

	srv := server.New(cfg, m, checks)
	srv.Register(handlers...)

	go func() {
		if err := srv.Run(); err != nil {
			l.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = multierr.Combine(
		srv.Shutdown(ctx),
		paymentSvc.Close(ctx),
	)
	for _, c := range closers {
		err = multierr.Append(err, c.Close())
	}
	if err != nil {
		l.Error("Shutdown finished with errors", zap.Error(err))
		return
	}
	l.Info("Shutdown complete")
}
