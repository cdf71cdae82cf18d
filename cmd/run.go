package cmd

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"voxparquet/internal/app"
	"voxparquet/internal/dataset"
	"voxparquet/internal/pipeline"
	"voxparquet/internal/upload"
	"voxparquet/internal/util"
)

var (
	useTUI       bool
	datasetCache string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full synthesis and tokenization pipeline",
	Long: `Loads the prompt dataset (local file or remote catalog), partitions it
into one chunk per worker, processes every prompt through synthesize/encode
with per-item retries, and persists results in batches to per-worker
outputs. Failed indices land in failed_indices_<worker>.json next to the
outputs. When upload is enabled, the save directory is pushed to the
configured endpoint after all workers finish.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLogger()
		cfg := getConfig()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Resolve the dataset file.
		path := cfg.Dataset.Path
		if cfg.Dataset.CatalogURL != "" {
			var err error
			path, err = dataset.FetchFromCatalog(ctx, util.DefaultHTTPClient(), cfg.Dataset.CatalogURL, cfg.Dataset.Name, datasetCache, logger)
			if err != nil {
				return fmt.Errorf("resolve dataset from catalog: %w", err)
			}
		}
		items, err := dataset.Load(path)
		if err != nil {
			return err
		}

		proc := cfg.Active()
		if cfg.TestMode {
			items = dataset.Head(items, cfg.Test.NumSamples)
			logger.Info("Test mode.", slog.Int("samples", len(items)))
		}
		if cfg.Dataset.RemainingIndicesFile != "" {
			indices, err := dataset.LoadIndices(cfg.Dataset.RemainingIndicesFile)
			if err != nil {
				return err
			}
			items = dataset.Select(items, indices)
			logger.Info("Processing sub-sampled items.",
				slog.Int("items", len(items)),
				slog.String("indices_file", cfg.Dataset.RemainingIndicesFile),
			)
		} else {
			logger.Info("Processing full dataset.", slog.Int("items", len(items)))
		}

		var result pipeline.RunResult
		var runErr error
		if useTUI {
			snapshots := make(chan pipeline.Snapshot, 1)
			done := make(chan struct{})
			go func() {
				defer close(done)
				result, runErr = pipeline.Run(ctx, items, proc, logger, snapshots)
			}()
			if tuiErr := app.Run(snapshots); tuiErr != nil {
				logger.Warn("Live view exited.", "error", tuiErr)
			}
			// Keep draining so the pipeline never blocks on a detached view.
			go func() {
				for range snapshots {
				}
			}()
			<-done
		} else {
			result, runErr = pipeline.Run(ctx, items, proc, logger, nil)
		}
		if runErr != nil {
			return fmt.Errorf("run pipeline: %w", runErr)
		}
		logger.Info("Pipeline finished.",
			slog.Int64("processed", result.Processed),
			slog.Int("failed", result.Failed),
			slog.Int("workers", result.Workers),
		)

		if cfg.Upload.Enabled {
			logger.Info("Uploading outputs.")
			workers := cfg.Upload.Workers
			if workers < 1 {
				workers = 1
			}
			if err := upload.Folder(ctx, proc.SaveDir, cfg.Upload.Endpoint, workers, logger); err != nil {
				return fmt.Errorf("upload outputs: %w", err)
			}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&useTUI, "tui", false, "Render a live progress view instead of plain progress logs.")
	runCmd.Flags().StringVar(&datasetCache, "dataset-cache", "./dataset_cache", "Directory for datasets downloaded from a remote catalog.")
}
