package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/farmconnect-backend/api/routes"
	"github.com/angelmondragon/farmconnect-backend/internal/cart"
	"github.com/angelmondragon/farmconnect-backend/internal/checkout"
	"github.com/angelmondragon/farmconnect-backend/internal/notifications"
	"github.com/angelmondragon/farmconnect-backend/internal/orders"
	"github.com/angelmondragon/farmconnect-backend/internal/products"
	"github.com/angelmondragon/farmconnect-backend/internal/users"
	"github.com/angelmondragon/farmconnect-backend/internal/wishlist"
	"github.com/angelmondragon/farmconnect-backend/pkg/auth/session"
	"github.com/angelmondragon/farmconnect-backend/pkg/config"
	"github.com/angelmondragon/farmconnect-backend/pkg/db"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"github.com/angelmondragon/farmconnect-backend/pkg/metrics"
	"github.com/angelmondragon/farmconnect-backend/pkg/migrate"
	"github.com/angelmondragon/farmconnect-backend/pkg/mongodb"
	"github.com/angelmondragon/farmconnect-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		return err
	}

	mongoClient, err := mongodb.Connect(bootCtx, cfg.Mongo, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Close(context.Background()); err != nil {
			logg.Error(context.Background(), "error closing mongo", err)
		}
	}()

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	revocations, err := session.NewRevocations(redisClient)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	productService, err := products.NewService(products.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		return err
	}

	notifyParams := notifications.ServiceParams{
		Logger:     logg,
		Repository: notifications.NewRepository(dbClient.DB()),
		Contacts:   users.NewRepository(dbClient.DB()),
	}
	mailer, err := notifications.NewSMTPMailer(cfg.Mail)
	if err != nil {
		return err
	}
	if mailer != nil {
		notifyParams.Mailer = mailer
	}
	notifier, err := notifications.NewService(notifyParams)
	if err != nil {
		return err
	}

	cartRepo := cart.NewMongoRepository(mongoClient.Database())
	if err := cartRepo.EnsureIndexes(bootCtx); err != nil {
		return err
	}
	cartService, err := cart.NewService(cart.ServiceParams{
		Repository: cartRepo,
		Inventory:  productService,
		Logger:     logg,
		Config:     cfg.Cart,
	})
	if err != nil {
		return err
	}

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		Repository: wishlist.NewMongoRepository(mongoClient.Database()),
		Inventory:  productService,
		Cart:       cartService,
	})
	if err != nil {
		return err
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(orders.ServiceParams{
		Repository: ordersRepo,
		Catalog:    productService,
		Notifier:   notifier,
	})
	if err != nil {
		return err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Logger:   logg,
		Carts:    cartService,
		Stock:    productService,
		Orders:   ordersRepo,
		Notifier: notifier,
		Metrics:  metrics.NewCheckoutMetrics(registry),
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			Postgres:    dbClient,
			Mongo:       mongoClient,
			Redis:       redisClient,
			Sessions:    revocations,
			Idempotency: redisClient,
			RateLimiter: redisClient,
			Metrics:     registry,
			Cart:        cartService,
			Wishlist:    wishlistService,
			Orders:      ordersService,
			Checkout:    checkoutService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-serveErr
}
