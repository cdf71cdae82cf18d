package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"voxparquet/internal/config"
	"voxparquet/internal/dataset"
	"voxparquet/internal/sink"
	"voxparquet/internal/speakers"
	"voxparquet/internal/synth"
	"voxparquet/internal/tokenizer"
)

// Snapshot is a progress poll result, emitted on every tick while workers
// run and once more after the join.
type Snapshot struct {
	Processed int64
	Total     int64
	Workers   []WorkerStatus
	Done      bool
}

// RunResult summarizes a completed orchestration.
type RunResult struct {
	Processed int64
	Failed    int
	Workers   int
}

// validateProcessing checks every required setting before any worker
// launches. All violations wrap ErrConfiguration.
func validateProcessing(cfg config.Processing) error {
	switch {
	case len(cfg.Devices) == 0:
		return fmt.Errorf("%w: devices must not be empty", ErrConfiguration)
	case cfg.NumProcsPerDevice < 1:
		return fmt.Errorf("%w: num_procs_per_device %d must be >= 1", ErrConfiguration, cfg.NumProcsPerDevice)
	case cfg.SaveDir == "":
		return fmt.Errorf("%w: save_dir is required", ErrConfiguration)
	case cfg.SaveBatchSize < 1:
		return fmt.Errorf("%w: save_batch_size %d must be >= 1", ErrConfiguration, cfg.SaveBatchSize)
	case cfg.SampleRate <= 0:
		return fmt.Errorf("%w: sample_rate %d must be positive", ErrConfiguration, cfg.SampleRate)
	case cfg.MaxRetries < 1:
		return fmt.Errorf("%w: max_retries %d must be >= 1", ErrConfiguration, cfg.MaxRetries)
	case cfg.Format != config.FormatParquet && cfg.Format != config.FormatDuckDB:
		return fmt.Errorf("%w: unknown format %q", ErrConfiguration, cfg.Format)
	}
	return nil
}

// FailedIndexPath names the worker-private failed-index file.
func FailedIndexPath(saveDir string, workerID int) string {
	return filepath.Join(saveDir, fmt.Sprintf("failed_indices_%d.json", workerID))
}

// Run distributes items over len(devices) x num_procs_per_device workers
// and blocks until all of them terminate. Devices are assigned round-robin,
// so several workers may share one device. While workers run, the shared
// processed counter is logged every progress interval; snapshots also go to
// the optional progress channel for the live view; interim sends are
// non-blocking and may be dropped.
//
// Worker failures do not stop sibling workers and are returned joined after
// everyone finishes. A crashed worker's chunk stays partially processed; use
// the failed command to derive a remaining-indices file for a re-run.
func Run(ctx context.Context, items []dataset.Item, cfg config.Processing, logger *slog.Logger, progress chan<- Snapshot) (RunResult, error) {
	if err := validateProcessing(cfg); err != nil {
		return RunResult{}, err
	}
	// Resolve the speaker eagerly so an unknown key fails fast.
	spk, err := speakers.Lookup(cfg.Speaker)
	if err != nil {
		return RunResult{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := os.MkdirAll(cfg.SaveDir, 0o755); err != nil {
		return RunResult{}, fmt.Errorf("create save dir %s: %w", cfg.SaveDir, err)
	}

	numWorkers := len(cfg.Devices) * cfg.NumProcsPerDevice
	logger.Info("Dataset size.", slog.Int("items", len(items)), slog.Int("workers", numWorkers))

	chunks, err := Chunks(items, numWorkers)
	if err != nil {
		return RunResult{}, err
	}

	var counter Counter
	workers := make([]*Worker, 0, numWorkers)
	for i, chunk := range chunks {
		device := cfg.Devices[i%len(cfg.Devices)]
		workerLogger := logger.With(
			slog.Int("worker_id", i),
			slog.String("device", device),
			slog.String("component", "worker"),
		)

		snk, err := sink.Open(cfg.Format, cfg.SaveDir, i)
		if err != nil {
			for _, w := range workers {
				w.sink.Close()
			}
			return RunResult{}, fmt.Errorf("open sink for worker %d: %w", i, err)
		}

		proc := NewItemProcessor(
			synth.NewToneSynthesizer(device, cfg.SampleRate),
			tokenizer.NewMuLawTokenizer(device),
			spk,
			cfg.SampleRate,
			cfg.MaxRetries,
			workerLogger,
		)
		acc := NewAccumulator(snk, FailedIndexPath(cfg.SaveDir, i), cfg.SaveBatchSize)
		workers = append(workers, NewWorker(i, device, chunk, proc, acc, snk, &counter, workerLogger))
	}

	var wg sync.WaitGroup
	var workerErrsMu sync.Mutex
	var workerErrs []error

	for _, w := range workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			if err := w.Run(ctx); err != nil {
				workerErrsMu.Lock()
				workerErrs = append(workerErrs, err)
				workerErrsMu.Unlock()
			}
		}(w)
	}

	// Blocking join plus a ticker emitting progress snapshots; same
	// observable behavior as polling worker liveness on an interval.
	joined := make(chan struct{})
	go func() {
		wg.Wait()
		close(joined)
	}()

	snapshot := func(done bool) Snapshot {
		s := Snapshot{
			Processed: counter.Load(),
			Total:     int64(len(items)),
			Workers:   make([]WorkerStatus, 0, len(workers)),
			Done:      done,
		}
		for _, w := range workers {
			s.Workers = append(s.Workers, w.Status())
		}
		return s
	}
	emit := func(s Snapshot) {
		if progress == nil {
			return
		}
		if s.Done {
			// The final snapshot must arrive; interim ones may be dropped.
			progress <- s
			return
		}
		select {
		case progress <- s:
		default:
		}
	}

	ticker := time.NewTicker(cfg.ProgressInterval)
	defer ticker.Stop()
poll:
	for {
		select {
		case <-ticker.C:
			s := snapshot(false)
			logger.Info("Processed.", slog.Int64("count", s.Processed), slog.Int64("total", s.Total))
			emit(s)
		case <-joined:
			break poll
		}
	}
	logger.Info("All workers have finished.")

	result := RunResult{Processed: counter.Load(), Workers: numWorkers}
	for _, w := range workers {
		result.Failed += w.acc.FailedCount()
	}
	emit(snapshot(true))
	logger.Info("Final processed count.",
		slog.Int64("count", result.Processed),
		slog.Int("failed", result.Failed),
	)

	workerErrsMu.Lock()
	finalErr := errors.Join(workerErrs...)
	workerErrsMu.Unlock()
	return result, finalErr
}
