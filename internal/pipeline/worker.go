package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ravndata/ingestgate/internal/logger"
)

// Sink delivers a batch of records somewhere durable. WriteBatch must
// be atomic from the caller's perspective: either the whole batch is
// delivered or none of it is.
type Sink interface {
	WriteBatch(ctx context.Context, records []Record) error
}

// State is the batch worker's lifecycle state, per the worker's main
// loop.
type State int32

const (
	StateIdle State = iota
	StateAccumulating
	StateFlushing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateFlushing:
		return "flushing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Worker accumulates records off the queue into batches and flushes
// them by size or by elapsed time, retrying through the primary sink
// before escalating an undeliverable batch to the DLQ.
type Worker struct {
	queue      *Queue
	batchSize  int
	flushEvery time.Duration
	primary    Sink
	dlq        Sink
	retry      *RetryPolicy
	logger     *slog.Logger
	recorder   Recorder

	state atomic.Int32
	batch []Record
}

func NewWorker(queue *Queue, batchSize int, flushInterval time.Duration, primary, dlq Sink, retry *RetryPolicy, logger *slog.Logger) *Worker {
	w := &Worker{
		queue:      queue,
		batchSize:  batchSize,
		flushEvery: flushInterval,
		primary:    primary,
		dlq:        dlq,
		retry:      retry,
		logger:     logger,
		batch:      make([]Record, 0, batchSize),
	}
	w.setState(StateIdle)
	return w
}

// WithRecorder attaches an observability recorder notified of queue
// depth, flush outcomes, and DLQ writes. Returns w for chaining at
// construction time.
func (w *Worker) WithRecorder(r Recorder) *Worker {
	w.recorder = r
	return w
}

func (w *Worker) State() State {
	return State(w.state.Load())
}

func (w *Worker) setState(s State) {
	w.state.Store(int32(s))
}

// Run is the worker's main loop. It returns nil on a graceful stop, or
// the cancellation/DLQ error that ended the loop otherwise. stop
// requests a drain-then-exit; ctx cancellation flushes the current batch
// and then returns the cancellation error.
func (w *Worker) Run(ctx context.Context, stop <-chan struct{}) error {
	w.setState(StateIdle)
	lastFlush := time.Now()

	for {
		remaining := w.flushEvery - time.Since(lastFlush)
		if remaining < 0 {
			remaining = 0
		}

		rec, result, err := w.queue.Take(ctx, stop, remaining)
		switch result {
		case TakeRecord:
			w.setState(StateAccumulating)
			w.batch = append(w.batch, rec)
			if w.recorder != nil {
				w.recorder.SetQueueDepth(w.queue.Size())
			}
			if len(w.batch) >= w.batchSize {
				w.setState(StateFlushing)
				if ferr := w.flush(ctx, "size"); ferr != nil {
					w.setState(StateStopped)
					return ferr
				}
				lastFlush = time.Now()
				w.setState(StateIdle)
			}

		case TakeTimeout:
			if len(w.batch) > 0 {
				w.setState(StateFlushing)
				if ferr := w.flush(ctx, "timeout"); ferr != nil {
					w.setState(StateStopped)
					return ferr
				}
				w.setState(StateIdle)
			}
			lastFlush = time.Now()

		case TakeStopped:
			w.setState(StateFlushing)
			ferr := w.flush(context.Background(), "shutdown")
			w.setState(StateStopped)
			return ferr

		case TakeCancelled:
			w.setState(StateFlushing)
			_ = w.flush(context.Background(), "cancel")
			w.setState(StateStopped)
			return err
		}
	}
}

// flush delivers the current batch and clears it. It returns an error
// only when the DLQ write itself fails -- that failure is fatal and
// must halt the pipeline, since it means a batch the primary sink
// rejected has nowhere left to go. trigger labels the reason this
// flush ran, for observability only.
func (w *Worker) flush(ctx context.Context, trigger string) error {
	if len(w.batch) == 0 {
		return nil
	}

	snapshot := w.batch
	w.batch = make([]Record, 0, w.batchSize)
	start := time.Now()

	batchID := uuid.NewString()
	log := w.logger.With("batch_id", batchID, "batch_size", len(snapshot))

	err := w.retry.Execute(ctx, func(ctx context.Context) error {
		return w.primary.WriteBatch(ctx, snapshot)
	})
	if err == nil {
		log.Debug("batch delivered")
		if w.recorder != nil {
			w.recorder.RecordFlush(trigger, len(snapshot), time.Since(start), false)
		}
		return nil
	}

	log.Warn("primary sink delivery failed, routing to DLQ",
		"error", err,
		"sample", logger.TruncatePreview(snapshot[0].Bytes(), 200),
	)

	dlqErr := w.dlq.WriteBatch(ctx, snapshot)
	if w.recorder != nil {
		w.recorder.RecordFlush(trigger, len(snapshot), time.Since(start), true)
		w.recorder.RecordDLQWrite(dlqErr)
	}
	if dlqErr != nil {
		log.Error("DLQ write failed, pipeline halting", "error", dlqErr)
		return fmt.Errorf("dlq write failed after delivery failure (%v): %w", err, dlqErr)
	}

	log.Warn("batch routed to DLQ")
	return nil
}
