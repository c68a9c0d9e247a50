package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/farmconnect-backend/internal/cart"
	"github.com/angelmondragon/farmconnect-backend/internal/cron"
	"github.com/angelmondragon/farmconnect-backend/internal/notifications"
	"github.com/angelmondragon/farmconnect-backend/pkg/config"
	"github.com/angelmondragon/farmconnect-backend/pkg/db"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"github.com/angelmondragon/farmconnect-backend/pkg/metrics"
	"github.com/angelmondragon/farmconnect-backend/pkg/mongodb"
	"github.com/angelmondragon/farmconnect-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	mongoClient, err := mongodb.Connect(context.Background(), cfg.Mongo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap mongo", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Close(context.Background()); err != nil {
			logg.Error(context.Background(), "error closing mongo", err)
		}
	}()

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

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, "cron-worker:"+envName(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	cartExpiry, err := cron.NewCartExpiryJob(cron.CartExpiryJobParams{
		Logger: logg,
		Carts:  cart.NewMongoRepository(mongoClient.Database()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart expiry job", err)
		os.Exit(1)
	}
	notificationCleanup, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:        logg,
		DB:            dbClient,
		Notifications: notifications.NewRepository(dbClient.DB()),
		RetentionDays: cfg.Cron.NotificationRetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification cleanup job", err)
		os.Exit(1)
	}

	registry, err := cron.NewRegistry(cartExpiry, notificationCleanup)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func envName(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
