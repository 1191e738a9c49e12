package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ValidationJobsKey is the Redis list holding queued validation jobs.
const ValidationJobsKey = "validation:jobs"

// Job is the envelope pushed onto the queue for one validation attempt.
// Attempt starts at 1 and is bumped on every retry.
type Job struct {
	ID         uuid.UUID `json:"job_id"`
	AddressID  uuid.UUID `json:"address_id"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Enqueuer schedules an asynchronous validation run for an address. The
// address service depends on this capability, not on a concrete transport, so
// a missing queue at boot is represented by the no-op implementation instead
// of nil checks at every call site.
type Enqueuer interface {
	EnqueueValidation(ctx context.Context, addressID uuid.UUID) error
}

// Noop is the fallback Enqueuer used when the queue is unreachable. It drops
// the job and logs, so CRUD stays available during a queue outage; the
// affected addresses simply stay pending until revalidated manually.
type Noop struct {
	logger *slog.Logger
}

// NewNoop creates a no-op enqueuer.
func NewNoop(logger *slog.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) EnqueueValidation(_ context.Context, addressID uuid.UUID) error {
	n.logger.Warn("queue unavailable, dropping validation job", "address_id", addressID)
	return nil
}
