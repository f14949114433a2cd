package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// QueueRender is the Redis list carrying pending render jobs.
const QueueRender = "queue:render"

// Queue is a Redis-backed FIFO used when renders are executed by a separate
// worker pool (QUEUE_MODE=redis). The payload carries only the job ID; the
// script and config live in the controller's registry.
type Queue struct {
	client *redis.Client
}

type RenderJob struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func New(redisURL string) (*Queue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Queue{client: client}, nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}

// EnqueueRender pushes a render job onto the queue.
func (q *Queue) EnqueueRender(ctx context.Context, jobID uuid.UUID) error {
	job := RenderJob{ID: jobID, CreatedAt: time.Now()}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return q.client.RPush(ctx, QueueRender, data).Err()
}

// DequeueRender blocks up to timeout for the next render job. A nil job with
// nil error means the timeout elapsed with nothing queued.
func (q *Queue) DequeueRender(ctx context.Context, timeout time.Duration) (*RenderJob, error) {
	result, err := q.client.BLPop(ctx, timeout, QueueRender).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue: %w", err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected redis response")
	}

	var job RenderJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// Length returns the number of queued render jobs.
func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, QueueRender).Result()
}
