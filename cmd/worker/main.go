package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"address-validation-service/internal/config"
	address "address-validation-service/internal/modules/addresses"
	"address-validation-service/internal/queue"
	"address-validation-service/internal/worker"
	"address-validation-service/pkg/shipengine"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}

	// Unlike the API, the worker is useless without its queue: fail hard.
	redisQueue, err := queue.NewRedisFromURL(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Unable to connect to redis: %v", err)
	}
	defer redisQueue.Close()

	addressRepo := address.NewRepository(dbPool)
	addressService := address.NewService(addressRepo, redisQueue, logger)

	w := worker.NewWorker(
		redisQueue,
		addressRepo,
		addressService,
		shipengine.NewStubClient(),
		worker.Config{
			MaxConcurrency: cfg.Worker.MaxJobs,
			JobTimeout:     cfg.Worker.JobTimeout,
			MaxTries:       cfg.Worker.MaxTries,
		},
		logger,
	)

	// Pick up jobs lost while the queue was down before taking new work.
	if _, err := w.RecoverPending(ctx); err != nil {
		logger.Warn("recovery sweep failed", "error", err)
	}

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Worker stopped with error: %v", err)
	}
	logger.Info("worker exiting")
}
