package worker

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ydssx/ai-video-maker/internal/queue"
	"github.com/ydssx/ai-video-maker/internal/render"
)

// ---------------------------------------------------------------------------
// Workers — both execution modes share the contract: a job accepted by
// Dispatch is eventually passed to the controller's Execute exactly once.
//
// InProcessPool runs renders on a bounded goroutine pool with a bounded
// pending buffer; RedisWorker pulls job IDs from the Redis queue, for
// deployments where the API and the render fleet are separate processes.
// ---------------------------------------------------------------------------

// Dispatcher accepts a submitted job for execution.
type Dispatcher interface {
	Dispatch(ctx context.Context, jobID uuid.UUID) error
}

// InProcessPool executes renders inside the API process.
type InProcessPool struct {
	controller *render.JobController
	pending    chan uuid.UUID
	workers    int
}

func NewInProcessPool(controller *render.JobController, workers, queueDepth int) *InProcessPool {
	if workers < 1 {
		workers = 1
	}
	if queueDepth < 1 {
		queueDepth = 1
	}
	return &InProcessPool{
		controller: controller,
		pending:    make(chan uuid.UUID, queueDepth),
		workers:    workers,
	}
}

// Start launches the worker goroutines. They drain until ctx is cancelled.
func (p *InProcessPool) Start(ctx context.Context) {
	log.Printf("[Worker] In-process pool started (workers=%d, depth=%d)", p.workers, cap(p.pending))
	for i := 0; i < p.workers; i++ {
		go p.loop(ctx)
	}
}

func (p *InProcessPool) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case jobID := <-p.pending:
			p.controller.Execute(ctx, jobID)
		}
	}
}

// Dispatch admits a job or reports the pool full. It never blocks the caller.
func (p *InProcessPool) Dispatch(ctx context.Context, jobID uuid.UUID) error {
	select {
	case p.pending <- jobID:
		return nil
	default:
		return render.ErrQueueFull
	}
}

// RedisWorker pairs the Redis queue with the controller.
type RedisWorker struct {
	controller *render.JobController
	queue      *queue.Queue
	workers    int
}

func NewRedisWorker(controller *render.JobController, q *queue.Queue, workers int) *RedisWorker {
	if workers < 1 {
		workers = 1
	}
	return &RedisWorker{
		controller: controller,
		queue:      q,
		workers:    workers,
	}
}

func (w *RedisWorker) Start(ctx context.Context) {
	log.Printf("[Worker] Redis workers started (workers=%d)", w.workers)
	for i := 0; i < w.workers; i++ {
		go w.loop(ctx)
	}
}

func (w *RedisWorker) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			job, err := w.queue.DequeueRender(ctx, 5*time.Second)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[Worker] Dequeue error: %v", err)
				time.Sleep(time.Second)
				continue
			}
			if job == nil {
				continue
			}
			w.controller.Execute(ctx, job.ID)
		}
	}
}

// Dispatch pushes the job ID onto the Redis queue.
func (w *RedisWorker) Dispatch(ctx context.Context, jobID uuid.UUID) error {
	return w.queue.EnqueueRender(ctx, jobID)
}
