package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"voxparquet/internal/dataset"
)

var failedOutput string

var failedCmd = &cobra.Command{
	Use:   "failed",
	Short: "Merge per-worker failed-index files into one remaining-indices file",
	Long: `Collects every failed_indices_<worker>.json under the configured save
directory, merges and sorts the indices, and writes a single remaining
indices file. Point dataset.remaining_indices_file at it to re-run only the
items that exhausted their retries.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLogger()
		saveDir := getConfig().Active().SaveDir
		if saveDir == "" {
			return fmt.Errorf("processing.save_dir is not configured")
		}

		pattern := filepath.Join(saveDir, "failed_indices_*.json")
		files, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("glob %s: %w", pattern, err)
		}
		if len(files) == 0 {
			logger.Info("No failed-index files found.", slog.String("dir", saveDir))
			return nil
		}

		for _, file := range files {
			logger.Info("Found failed indices.", slog.String("file", filepath.Base(file)))
		}
		merged, err := dataset.MergeIndexFiles(files)
		if err != nil {
			return err
		}

		data, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("serialize merged indices: %w", err)
		}
		if err := os.WriteFile(failedOutput, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", failedOutput, err)
		}
		logger.Info("Wrote remaining indices.", slog.String("path", failedOutput), slog.Int("count", len(merged)))
		return nil
	},
}

func init() {
	failedCmd.Flags().StringVarP(&failedOutput, "output", "o", "./remaining_indices.json", "Path for the merged remaining-indices file.")
}
