package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	address "address-validation-service/internal/modules/addresses"
	"address-validation-service/internal/models"
	"address-validation-service/internal/queue"
	"address-validation-service/pkg/shipengine"
)

var jobsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "validation_jobs_total",
		Help: "Validation jobs by outcome (completed, retried, failed).",
	},
	[]string{"outcome"},
)

// Config holds worker configuration.
type Config struct {
	// WorkerID uniquely identifies this worker instance in logs.
	WorkerID string

	// MaxConcurrency caps the number of jobs processed simultaneously.
	MaxConcurrency int

	// JobTimeout bounds a single validation attempt; exceeding it counts as a
	// transient failure and the job is retried.
	JobTimeout time.Duration

	// MaxTries is the total number of attempts before a job is dropped.
	MaxTries int

	// DequeueWait is how long each blocking pop waits before polling again.
	DequeueWait time.Duration
}

// JobQueue is the consumer side of the validation queue. EnqueueValidation is
// included so the worker can put recovered jobs back on the queue.
type JobQueue interface {
	EnqueueValidation(ctx context.Context, addressID uuid.UUID) error
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job queue.Job) error
}

// Worker consumes validation jobs: it loads the address, calls the validation
// provider and records the verdict through the address service.
type Worker struct {
	config  Config
	queue   JobQueue
	repo    address.RepositoryInterface
	service address.ServiceInterface
	client  shipengine.Client
	logger  *slog.Logger
}

// NewWorker creates a validation worker.
func NewWorker(
	q JobQueue,
	repo address.RepositoryInterface,
	service address.ServiceInterface,
	client shipengine.Client,
	config Config,
	logger *slog.Logger,
) *Worker {
	// Set defaults
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 10
	}
	if config.JobTimeout == 0 {
		config.JobTimeout = 300 * time.Second
	}
	if config.MaxTries == 0 {
		config.MaxTries = 3
	}
	if config.DequeueWait == 0 {
		config.DequeueWait = 5 * time.Second
	}

	return &Worker{
		config:  config,
		queue:   q,
		repo:    repo,
		service: service,
		client:  client,
		logger:  logger,
	}
}

// Start consumes jobs until the context is cancelled, then drains in-flight
// jobs before returning.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting",
		"worker_id", w.config.WorkerID,
		"max_concurrency", w.config.MaxConcurrency,
		"job_timeout", w.config.JobTimeout,
		"max_tries", w.config.MaxTries,
	)

	// Semaphore for concurrency control
	sem := make(chan struct{}, w.config.MaxConcurrency)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down", "worker_id", w.config.WorkerID)
			// Wait for in-flight jobs to complete.
			for i := 0; i < w.config.MaxConcurrency; i++ {
				sem <- struct{}{}
			}
			return ctx.Err()
		default:
		}

		job, err := w.queue.Dequeue(ctx, w.config.DequeueWait)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error("failed to dequeue job", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		sem <- struct{}{}
		go func(job queue.Job) {
			defer func() { <-sem }()
			w.processJob(ctx, job)
		}(*job)
	}
}

// recoverBatchSize caps how many stuck addresses a single recovery sweep
// re-enqueues.
const recoverBatchSize = 100

// RecoverPending re-enqueues addresses still marked pending, picking up jobs
// that were lost while the queue was unavailable. Validation is idempotent, so
// occasionally double-enqueueing an address that already has a live job is
// harmless.
func (w *Worker) RecoverPending(ctx context.Context) (int, error) {
	addrs, err := w.repo.FindByStatus(ctx, models.StatusPending, recoverBatchSize)
	if err != nil {
		return 0, fmt.Errorf("recover pending: %w", err)
	}

	recovered := 0
	for _, addr := range addrs {
		if err := w.queue.EnqueueValidation(ctx, addr.ID); err != nil {
			return recovered, fmt.Errorf("recover pending: enqueue %s: %w", addr.ID, err)
		}
		recovered++
	}
	if recovered > 0 {
		w.logger.Info("re-enqueued pending addresses", "count", recovered)
	}
	return recovered, nil
}

// ProcessOne pops and processes a single job; it returns false when the queue
// was empty. Used by tests and one-shot maintenance runs.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	job, err := w.queue.Dequeue(ctx, w.config.DequeueWait)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	w.processJob(ctx, *job)
	return true, nil
}

// processJob runs one validation attempt and classifies the outcome as
// completed, terminal failure or transient failure.
func (w *Worker) processJob(ctx context.Context, job queue.Job) {
	w.logger.Info("processing job",
		"job_id", job.ID,
		"address_id", job.AddressID,
		"attempt", job.Attempt,
	)

	jobCtx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	status, err := w.validate(jobCtx, job.AddressID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// The address was deleted after the job was scheduled. Terminal,
			// never retried.
			w.logger.Error("job failed permanently: address not found",
				"job_id", job.ID,
				"address_id", job.AddressID,
			)
			jobsTotal.WithLabelValues("failed").Inc()
			return
		}

		if job.Attempt >= w.config.MaxTries {
			w.logger.Error("job failed after max tries",
				"job_id", job.ID,
				"address_id", job.AddressID,
				"attempt", job.Attempt,
				"error", err,
			)
			jobsTotal.WithLabelValues("failed").Inc()
			return
		}

		w.logger.Warn("job failed, retrying",
			"job_id", job.ID,
			"address_id", job.AddressID,
			"attempt", job.Attempt,
			"error", err,
		)
		if retryErr := w.queue.Retry(ctx, job); retryErr != nil {
			w.logger.Error("failed to requeue job", "job_id", job.ID, "error", retryErr)
			jobsTotal.WithLabelValues("failed").Inc()
			return
		}
		jobsTotal.WithLabelValues("retried").Inc()
		return
	}

	w.logger.Info("job completed",
		"job_id", job.ID,
		"address_id", job.AddressID,
		"status", status,
	)
	jobsTotal.WithLabelValues("completed").Inc()
}

// validate loads the address, invokes the provider and persists the verdict.
func (w *Worker) validate(ctx context.Context, addressID uuid.UUID) (models.ValidationStatus, error) {
	addr, err := w.repo.FindByID(ctx, addressID)
	if err != nil {
		return "", err
	}

	result, err := w.client.ValidateAddress(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("provider call failed: %w", err)
	}

	if _, err := w.service.SaveValidationResult(ctx, addressID, result.Status, result.MatchedAddress, result.Messages); err != nil {
		return "", err
	}

	return result.Status, nil
}
