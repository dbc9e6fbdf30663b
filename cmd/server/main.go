package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/vitaup/VitaUpBack/internal/config"
	"github.com/vitaup/VitaUpBack/internal/database"
	"github.com/vitaup/VitaUpBack/internal/events"
	"github.com/vitaup/VitaUpBack/internal/handlers"
	"github.com/vitaup/VitaUpBack/internal/logger"
	"github.com/vitaup/VitaUpBack/internal/metrics"
	"github.com/vitaup/VitaUpBack/internal/middleware"
	"github.com/vitaup/VitaUpBack/internal/pgstore"
	"github.com/vitaup/VitaUpBack/internal/routes"
	"github.com/vitaup/VitaUpBack/internal/session"
	"github.com/vitaup/VitaUpBack/internal/store"
	"github.com/vitaup/VitaUpBack/internal/supabase"
	statews "github.com/vitaup/VitaUpBack/internal/websocket"
	"go.uber.org/zap"
)

const (
	tokenRefreshInterval = 30 * time.Second
	sweepInterval        = time.Minute
	tokenPruneInterval   = time.Hour
	shutdownTimeout      = 10 * time.Second
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Connect the data store
	factory, closeStore, err := storeFactory(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("data_store_init_failed", zap.String("data_store", cfg.DataStore), zap.Error(err))
	}
	defer closeStore()

	registry := session.NewRegistry(factory, session.Options{
		Logger:           zapLogger,
		ProvisionMaxWait: cfg.ProvisionMaxWait,
	}, cfg.ClientIdleTTL)
	defer registry.Close()
	go registry.Run(ctx, sweepInterval)

	hub := statews.NewHub(zapLogger)
	go hub.Run(ctx)

	// 3. Setup Fiber
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(zapLogger),
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowCredentials: cfg.AllowOrigins != "*",
	}))
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(zapLogger))

	// Routes
	if err := routes.RegisterRoutes(app, routes.Dependencies{
		Config:  cfg,
		Clients: registry,
		Hub:     hub,
		Logger:  zapLogger,
	}); err != nil {
		zapLogger.Fatal("register_routes_failed", zap.Error(err))
	}

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			zapLogger.Warn("server_shutdown_failed", zap.Error(err))
		}
	}()

	// 4. Start Server
	zapLogger.Info("server_starting",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
		zap.String("data_store", cfg.DataStore),
	)
	if err := app.Listen(":" + cfg.Port); err != nil {
		zapLogger.Fatal("server_failed", zap.Error(err))
	}
	zapLogger.Info("server_stopped")
}

// storeFactory builds the per-client data store constructor for the
// configured backend, plus a cleanup for what it shares.
func storeFactory(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Factory, func(), error) {
	switch cfg.DataStore {
	case config.DataStoreSupabase:
		factory := func() (store.Client, error) {
			return supabase.NewClient(supabase.Options{
				URL:                 cfg.SupabaseURL,
				AnonKey:             cfg.SupabaseAnonKey,
				Logger:              logger,
				AutoRefreshInterval: tokenRefreshInterval,
			})
		}
		return factory, func() {}, nil

	case config.DataStorePostgres:
		pool, err := database.ConnectDB(ctx, cfg.DBUrl, logger)
		if err != nil {
			return nil, nil, err
		}
		bus, err := events.New(ctx, cfg.RedisURL, logger)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		go pgstore.RunTokenJanitor(ctx, pool, tokenPruneInterval, logger)
		factory := func() (store.Client, error) {
			return pgstore.NewClient(pool, bus, pgstore.Options{
				Secret:              cfg.JWTSecret,
				AccessTTL:           cfg.AccessTokenTTL,
				AutoRefreshInterval: tokenRefreshInterval,
				Logger:              logger,
			})
		}
		cleanup := func() {
			if err := bus.Close(); err != nil {
				logger.Warn("event_bus_close_failed", zap.Error(err))
			}
			pool.Close()
		}
		return factory, cleanup, nil
	}
	return nil, nil, errors.New("unsupported data store " + cfg.DataStore)
}
