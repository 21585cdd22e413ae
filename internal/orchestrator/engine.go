// Package orchestrator runs queued generation jobs through a bounded worker
// pool. Jobs arrive from the scheduler's store poll or from the CLI; the
// handler owns the actual hydrate-generate-write pipeline.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrQueueFull = errors.New("job queue is full")

// Job is one content request to generate.
type Job struct {
	ID          string
	InitiatorID string
	BaseID      string
	Goal        string
	CreatedAt   time.Time
}

// Handler processes one job. Errors are logged by the engine; retry policy
// belongs to the scheduler, which re-enqueues records still in the queued
// status on its next poll.
type Handler func(ctx context.Context, job Job) error

type Engine struct {
	maxConcurrency int
	jobs           chan Job
	logger         *slog.Logger
	handler        Handler
	startOnce      sync.Once
}

func New(maxConcurrency int, handler Handler, logger *slog.Logger) *Engine {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		maxConcurrency: maxConcurrency,
		jobs:           make(chan Job, maxConcurrency*50),
		logger:         logger,
		handler:        handler,
	}
}

// Start runs the worker pool until ctx is canceled.
func (e *Engine) Start(ctx context.Context) error {
	var workers sync.WaitGroup
	e.startOnce.Do(func() {
		for index := 0; index < e.maxConcurrency; index++ {
			workers.Add(1)
			go func(workerID int) {
				defer workers.Done()
				e.worker(ctx, workerID)
			}(index + 1)
		}
	})

	<-ctx.Done()
	workers.Wait()
	return nil
}

// Enqueue adds a job without blocking; a full queue is reported to the
// caller rather than absorbed.
func (e *Engine) Enqueue(job Job) (Job, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	select {
	case e.jobs <- job:
		e.logger.Info("job queued", "job_id", job.ID, "initiator_id", job.InitiatorID)
		return job, nil
	default:
		return Job{}, ErrQueueFull
	}
}

func (e *Engine) worker(ctx context.Context, workerID int) {
	e.logger.Info("worker started", "worker_id", workerID)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("worker stopped", "worker_id", workerID)
			return
		case job := <-e.jobs:
			e.process(ctx, workerID, job)
		}
	}
}

func (e *Engine) process(ctx context.Context, workerID int, job Job) {
	e.logger.Info("processing job", "worker_id", workerID, "job_id", job.ID, "initiator_id", job.InitiatorID)
	if e.handler == nil {
		e.logger.Warn("no handler configured, dropping job", "job_id", job.ID)
		return
	}
	if err := e.handler(ctx, job); err != nil {
		e.logger.Error("job failed", "job_id", job.ID, "initiator_id", job.InitiatorID, "error", err)
		return
	}
	e.logger.Info("job completed", "job_id", job.ID, "initiator_id", job.InitiatorID)
}
