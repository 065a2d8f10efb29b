package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Config wires a Pipeline's collaborators together. Every field except
// Recorder is required.
type Config struct {
	Queue         *Queue
	BatchSize     int
	FlushInterval time.Duration
	Primary       Sink
	DLQ           Sink
	Retry         *RetryPolicy
	Logger        *slog.Logger
	Recorder      Recorder // optional; nil disables observability callbacks
}

// Pipeline is the ingestion gateway's core: a bounded admission queue
// feeding a batch worker. Admit is safe to call from any number of
// goroutines; the worker itself runs on a single goroutine started by
// Start.
type Pipeline struct {
	queue    *Queue
	worker   *Worker
	logger   *slog.Logger
	recorder Recorder

	stop   chan struct{}
	group  *errgroup.Group
	cancel context.CancelFunc
}

func New(cfg Config) *Pipeline {
	worker := NewWorker(cfg.Queue, cfg.BatchSize, cfg.FlushInterval, cfg.Primary, cfg.DLQ, cfg.Retry, cfg.Logger)
	if cfg.Recorder != nil {
		worker = worker.WithRecorder(cfg.Recorder)
	}
	return &Pipeline{
		queue:    cfg.Queue,
		worker:   worker,
		logger:   cfg.Logger,
		recorder: cfg.Recorder,
		stop:     make(chan struct{}),
	}
}

// Start launches the batch worker goroutine. Call Shutdown to stop it.
func (p *Pipeline) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	g, gctx := errgroup.WithContext(ctx)
	p.group = g
	g.Go(func() error {
		return p.worker.Run(gctx, p.stop)
	})
}

// Admit forwards records to the bounded queue as a single atomic unit.
// Returns ErrQueueFull if admitting would exceed capacity; no records
// are enqueued in that case.
func (p *Pipeline) Admit(records []Record) error {
	if len(records) == 0 {
		return nil
	}
	err := p.queue.Admit(records)
	if p.recorder != nil {
		p.recorder.RecordAdmission(err == nil)
	}
	return err
}

// QueueDepth reports the current best-effort backlog size.
func (p *Pipeline) QueueDepth() int {
	return p.queue.Size()
}

// WorkerState reports the batch worker's current lifecycle state.
func (p *Pipeline) WorkerState() State {
	return p.worker.State()
}

// Shutdown signals the worker to stop, then waits for it to finish or
// ctx to expire. The worker keeps taking records until the queue is
// empty, flushing by size as it goes, then flushes its final batch and
// exits. Records admitted after the worker has exited are never
// delivered: the queue itself is not durable.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	close(p.stop)

	done := make(chan error, 1)
	go func() {
		done <- p.group.Wait()
	}()

	select {
	case err := <-done:
		p.cancel()
		return err
	case <-ctx.Done():
		p.cancel()
		return fmt.Errorf("pipeline shutdown timed out: %w", ctx.Err())
	}
}
