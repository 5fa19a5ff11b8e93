package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/shelfline/shelfline-backend/api/routes"
	"github.com/shelfline/shelfline-backend/internal/auth"
	"github.com/shelfline/shelfline-backend/internal/cart"
	"github.com/shelfline/shelfline-backend/internal/catalog"
	"github.com/shelfline/shelfline-backend/internal/circulation"
	"github.com/shelfline/shelfline-backend/internal/entrylog"
	"github.com/shelfline/shelfline-backend/internal/importer"
	"github.com/shelfline/shelfline-backend/internal/penalty"
	"github.com/shelfline/shelfline-backend/internal/students"
	"github.com/shelfline/shelfline-backend/pkg/auth/session"
	"github.com/shelfline/shelfline-backend/pkg/config"
	"github.com/shelfline/shelfline-backend/pkg/db"
	"github.com/shelfline/shelfline-backend/pkg/logger"
	"github.com/shelfline/shelfline-backend/pkg/migrate"
	"github.com/shelfline/shelfline-backend/pkg/redis"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	circulationRepo := circulation.NewRepository(dbClient.DB())
	studentsRepo := students.NewRepository(dbClient.DB())
	entrylogRepo := entrylog.NewRepository(dbClient.DB())

	catalogService, err := catalog.NewService(dbClient, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	penaltyPolicy, err := penalty.NewPolicy(cfg.Circulation)
	if err != nil {
		logg.Error(context.Background(), "failed to create penalty policy", err)
		os.Exit(1)
	}

	circulationService, err := circulation.NewService(dbClient, circulationRepo, catalogRepo, penaltyPolicy)
	if err != nil {
		logg.Error(context.Background(), "failed to create circulation service", err)
		os.Exit(1)
	}

	studentsService, err := students.NewService(studentsRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create students service", err)
		os.Exit(1)
	}

	entrylogService, err := entrylog.NewService(entrylogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create entry log service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(redisClient, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	importService, err := importer.NewService(dbClient, catalogRepo, studentsRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create import service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Members:        studentsRepo,
		EntryLog:       entrylogService,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
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

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			authService,
			catalogService,
			cartService,
			circulationService,
			studentsService,
			entrylogService,
			importService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
