package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Report row counts of generated Parquet outputs",
	RunE: func(cmd *cobra.Command, args []string) error {
		saveDir := getConfig().Active().SaveDir
		if saveDir == "" {
			return fmt.Errorf("processing.save_dir is not configured")
		}

		pattern := filepath.Join(saveDir, "audio_tokens_*.parquet")
		files, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("glob %s: %w", pattern, err)
		}
		if len(files) == 0 {
			fmt.Printf("No parquet outputs found in %s.\n", saveDir)
			return nil
		}

		fmt.Printf("%-40s | %s\n", "File", "Rows")
		var total int64
		for _, path := range files {
			fr, err := local.NewLocalFileReader(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			pr, err := reader.NewParquetReader(fr, nil, 1)
			if err != nil {
				fr.Close()
				return fmt.Errorf("read %s: %w", path, err)
			}
			rows := pr.GetNumRows()
			pr.ReadStop()
			fr.Close()

			fmt.Printf("%-40s | %d\n", filepath.Base(path), rows)
			total += rows
		}
		fmt.Printf("Total rows: %d\n", total)
		return nil
	},
}
