package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"voxparquet/internal/dataset"
	"voxparquet/internal/sink"
)

// WorkerState tracks a worker through its lifecycle.
type WorkerState int32

const (
	StateInit WorkerState = iota
	StateRunning
	StateDraining
	StateDone
	StateFailed
)

func (s WorkerState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Worker processes exactly one chunk on one device. Workers are fully
// independent: the only shared mutable state is the progress counter.
type Worker struct {
	id     int
	device string
	chunk  []dataset.Item

	processor *ItemProcessor
	acc       *Accumulator
	sink      sink.RecordSink
	counter   *Counter
	logger    *slog.Logger

	state     atomic.Int32
	processed atomic.Int64
}

// WorkerStatus is a point-in-time view of one worker for progress reporting.
type WorkerStatus struct {
	ID        int
	Device    string
	State     WorkerState
	Total     int
	Processed int64
	Failed    int
}

// NewWorker assembles a worker from its already-bound components.
func NewWorker(id int, device string, chunk []dataset.Item, proc *ItemProcessor, acc *Accumulator, snk sink.RecordSink, counter *Counter, logger *slog.Logger) *Worker {
	return &Worker{
		id:        id,
		device:    device,
		chunk:     chunk,
		processor: proc,
		acc:       acc,
		sink:      snk,
		counter:   counter,
		logger:    logger,
	}
}

// Status snapshots the worker for the orchestrator's progress poll.
func (w *Worker) Status() WorkerStatus {
	return WorkerStatus{
		ID:        w.id,
		Device:    w.device,
		State:     WorkerState(w.state.Load()),
		Total:     len(w.chunk),
		Processed: w.processed.Load(),
		Failed:    w.acc.FailedCount(),
	}
}

// Run drives the worker through running, draining and done. Item-level
// failures are absorbed into the failed-index list; only durable-write
// failures abort the worker, leaving the rest of its chunk unprocessed.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Debug("Worker starting.", slog.Int("chunk_size", len(w.chunk)))
	w.state.Store(int32(StateRunning))

	for _, item := range w.chunk {
		if ctx.Err() != nil {
			w.logger.Warn("Worker interrupted, draining early.", "error", ctx.Err())
			break
		}
		w.logger.Debug("Processing item.", slog.Int64("index", item.Index))

		rec, err := w.processor.Process(item)
		if err != nil {
			// Retries already exhausted and logged; account and move on.
			w.acc.RecordFailure(item.Index)
			continue
		}
		if _, err := w.acc.Offer(rec); err != nil {
			w.state.Store(int32(StateFailed))
			w.closeSink()
			return w.fail(err)
		}
		w.counter.Inc()
		w.processed.Add(1)
	}

	w.state.Store(int32(StateDraining))
	if err := w.acc.Drain(); err != nil {
		w.state.Store(int32(StateFailed))
		w.closeSink()
		return w.fail(err)
	}

	if err := w.sink.Close(); err != nil {
		w.state.Store(int32(StateFailed))
		return w.fail(fmt.Errorf("%w: %v", ErrDurableWrite, err))
	}
	w.state.Store(int32(StateDone))
	w.logger.Info("Worker finished.",
		slog.Int64("processed", w.processed.Load()),
		slog.Int("failed", w.acc.FailedCount()),
	)
	return nil
}

// closeSink releases the sink on abort paths, where the original failure is
// what surfaces; a close error here is only worth a log line.
func (w *Worker) closeSink() {
	if err := w.sink.Close(); err != nil {
		w.logger.Error("Sink close failed during abort.", "error", err)
	}
}

func (w *Worker) fail(err error) error {
	w.logger.Error("Worker aborted.", "error", err)
	return fmt.Errorf("worker %d on %s: %w", w.id, w.device, err)
}
