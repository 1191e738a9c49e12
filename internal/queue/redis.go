package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis is the durable queue implementation backed by a Redis list. Producers
// LPUSH job envelopes; consumers BRPOP them, so jobs are delivered in enqueue
// order and survive producer restarts.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis creates a queue on an existing Redis client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, key: ValidationJobsKey}
}

// NewRedisFromURL connects to Redis and verifies the connection with a ping.
func NewRedisFromURL(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("queue: parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("queue: redis ping failed: %w", err)
	}

	return NewRedis(client), nil
}

// EnqueueValidation pushes a first-attempt job for the address.
func (q *Redis) EnqueueValidation(ctx context.Context, addressID uuid.UUID) error {
	return q.push(ctx, Job{
		ID:         uuid.New(),
		AddressID:  addressID,
		Attempt:    1,
		EnqueuedAt: time.Now().UTC(),
	})
}

// Retry re-queues a job after a transient failure, bumping the attempt counter.
func (q *Redis) Retry(ctx context.Context, job Job) error {
	job.Attempt++
	return q.push(ctx, job)
}

// Dequeue blocks for up to timeout waiting for the next job. It returns
// (nil, nil) when the wait times out without a job.
func (q *Redis) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("queue: brpop: %w", err)
	}

	// BRPop returns [key, value].
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("queue: decode job: %w", err)
	}
	return &job, nil
}

// Health checks the Redis connection.
func (q *Redis) Health(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close closes the underlying Redis connection.
func (q *Redis) Close() error {
	return q.client.Close()
}

func (q *Redis) push(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: encode job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("queue: lpush: %w", err)
	}
	return nil
}
