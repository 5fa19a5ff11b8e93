package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shelfline/shelfline-backend/internal/catalog"
	"github.com/shelfline/shelfline-backend/internal/circulation"
	"github.com/shelfline/shelfline-backend/internal/cron"
	"github.com/shelfline/shelfline-backend/internal/entrylog"
	"github.com/shelfline/shelfline-backend/internal/penalty"
	"github.com/shelfline/shelfline-backend/pkg/config"
	"github.com/shelfline/shelfline-backend/pkg/db"
	"github.com/shelfline/shelfline-backend/pkg/logger"
	"github.com/shelfline/shelfline-backend/pkg/metrics"
	"github.com/shelfline/shelfline-backend/pkg/migrate"
	"github.com/shelfline/shelfline-backend/pkg/redis"
)

const lockKeyFormat = "sl:cron-worker:lock:%s"

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

	penaltyPolicy, err := penalty.NewPolicy(cfg.Circulation)
	if err != nil {
		logg.Error(context.Background(), "failed to create penalty policy", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	circulationRepo := circulation.NewRepository(dbClient.DB())

	circulationService, err := circulation.NewService(dbClient, circulationRepo, catalogRepo, penaltyPolicy)
	if err != nil {
		logg.Error(context.Background(), "failed to create circulation service", err)
		os.Exit(1)
	}

	entrylogService, err := entrylog.NewService(entrylog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create entry log service", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()

	penaltyJob, err := cron.NewPenaltyRefreshJob(cron.PenaltyRefreshJobParams{
		Logger:      logg,
		Circulation: circulationService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create penalty refresh job", err)
		os.Exit(1)
	}
	registry.Register(penaltyJob)

	entryJob, err := cron.NewEntryLogCloseJob(cron.EntryLogCloseJobParams{
		Logger:      logg,
		EntryLog:    entrylogService,
		IdleTimeout: cfg.EntryLog.IdleTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create entry log close job", err)
		os.Exit(1)
	}
	registry.Register(entryJob)

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
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

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
