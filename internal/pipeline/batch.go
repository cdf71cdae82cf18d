package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"voxparquet/internal/sink"
)

// Accumulator buffers processed records for one worker and flushes them to
// the worker's sink in save_batch_size batches. Failed indices ride the same
// flush cadence: whenever a batch flushes, the failed-index file is brought
// up to date, so after a crash the file reflects all failures up to the last
// flush boundary at worst.
//
// The failed-index file is cumulative: each write contains every index that
// has exhausted its retries so far in this run, not just the window since
// the previous flush.
type Accumulator struct {
	sink       sink.RecordSink
	failedPath string
	batchSize  int

	// records is only touched by the owning worker goroutine. The failed
	// slices are also read by the orchestrator's progress poll, so they sit
	// behind failedMu.
	records       []sink.Record
	failedMu      sync.Mutex
	pendingFailed []int64
	flushedFailed []int64
}

// NewAccumulator creates the batch buffer for one worker. batchSize must be
// validated by the caller; the accumulator trusts it.
func NewAccumulator(s sink.RecordSink, failedPath string, batchSize int) *Accumulator {
	return &Accumulator{
		sink:       s,
		failedPath: failedPath,
		batchSize:  batchSize,
		records:    make([]sink.Record, 0, batchSize),
	}
}

// Offer appends a processed record. When the batch reaches capacity it is
// flushed and cleared; flushed reports whether that happened. A flush error
// wraps ErrDurableWrite and is fatal to the worker.
func (a *Accumulator) Offer(rec sink.Record) (flushed bool, err error) {
	a.records = append(a.records, rec)
	if len(a.records) < a.batchSize {
		return false, nil
	}
	return true, a.flush()
}

// RecordFailure notes an item whose retries are exhausted. The index is
// persisted at the next flush boundary (or at Drain).
func (a *Accumulator) RecordFailure(index int64) {
	a.failedMu.Lock()
	a.pendingFailed = append(a.pendingFailed, index)
	a.failedMu.Unlock()
}

// Pending reports buffered record and failed-index counts, for tests and
// progress reporting.
func (a *Accumulator) Pending() (records, failed int) {
	a.failedMu.Lock()
	failed = len(a.pendingFailed)
	a.failedMu.Unlock()
	return len(a.records), failed
}

// FailedCount reports how many items have exhausted retries so far. Safe to
// call from the orchestrator's poll while the worker is still running.
func (a *Accumulator) FailedCount() int {
	a.failedMu.Lock()
	defer a.failedMu.Unlock()
	return len(a.flushedFailed) + len(a.pendingFailed)
}

// Drain unconditionally persists any residual batch and failed indices. It
// is called once when the worker leaves its item loop, normal or not.
func (a *Accumulator) Drain() error {
	a.failedMu.Lock()
	pending := len(a.pendingFailed)
	a.failedMu.Unlock()
	if len(a.records) == 0 && pending == 0 {
		return nil
	}
	return a.flush()
}

func (a *Accumulator) flush() error {
	if len(a.records) > 0 {
		if err := a.sink.AppendBatch(a.records); err != nil {
			return fmt.Errorf("%w: %v", ErrDurableWrite, err)
		}
		a.records = a.records[:0]
	}

	a.failedMu.Lock()
	if len(a.pendingFailed) > 0 {
		a.flushedFailed = append(a.flushedFailed, a.pendingFailed...)
		a.pendingFailed = a.pendingFailed[:0]
	}
	failed := make([]int64, len(a.flushedFailed))
	copy(failed, a.flushedFailed)
	a.failedMu.Unlock()

	if len(failed) > 0 {
		if err := a.writeFailed(failed); err != nil {
			return fmt.Errorf("%w: %v", ErrDurableWrite, err)
		}
	}
	return nil
}

func (a *Accumulator) writeFailed(failed []int64) error {
	data, err := json.Marshal(failed)
	if err != nil {
		return fmt.Errorf("serialize failed indices: %w", err)
	}
	if err := os.WriteFile(a.failedPath, data, 0o644); err != nil {
		return fmt.Errorf("write failed indices %s: %w", a.failedPath, err)
	}
	return nil
}
