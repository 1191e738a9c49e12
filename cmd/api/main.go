package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"address-validation-service/internal/api"
	"address-validation-service/internal/config"
	address "address-validation-service/internal/modules/addresses"
	"address-validation-service/internal/modules/health"
	"address-validation-service/internal/queue"
	"address-validation-service/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	e := echo.New()
	e.HideBanner = true

	// 2. --- Middleware ---
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// 3. --- Database Connection ---
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database configuration: %v", err)
	}

	dbPool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	logger.Info("connected to database")

	// 4. --- Migrations ---
	migrationDB := stdlib.OpenDBFromPool(dbPool)
	if err := migrations.Run(migrationDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := migrationDB.Close(); err != nil {
		log.Fatalf("Failed to release migration connection: %v", err)
	}
	logger.Info("migrations applied")

	// 5. --- Validation Job Queue ---
	// A queue outage must not block CRUD availability: fall back to the no-op
	// scheduler and keep serving. Affected addresses stay pending until
	// revalidated manually.
	var enqueuer queue.Enqueuer
	redisQueue, err := queue.NewRedisFromURL(context.Background(), cfg.RedisURL)
	if err != nil {
		logger.Warn("failed to connect to redis, validation scheduling disabled", "error", err)
		enqueuer = queue.NewNoop(logger)
	} else {
		defer redisQueue.Close()
		enqueuer = redisQueue
		logger.Info("validation queue initialized")
	}

	// 6. --- Dependency Injection (Wiring everything up) ---
	addressRepo := address.NewRepository(dbPool)
	addressService := address.NewService(addressRepo, enqueuer, logger)
	addressHandler := address.NewHandler(addressService)

	healthHandler := health.NewHandler(dbPool)

	// 7. --- Initialize Router ---
	api.SetupRoutes(e, addressHandler, healthHandler)

	// 8. --- Start Server with graceful shutdown logic ---
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server, an error occurred: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal("Server forced to shutdown: ", err)
	}
	logger.Info("server exiting")
}
