package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultProgressInterval is how often the orchestrator logs the shared
	// processed counter while workers are running.
	DefaultProgressInterval = 60 * time.Second

	// DefaultUploadWorkers bounds the post-run upload fan-out.
	DefaultUploadWorkers = 4
)

// Output formats accepted by processing.format.
const (
	FormatParquet = "parquet"
	FormatDuckDB  = "duckdb"
)

// Dataset selects the input collection of prompts.
type Dataset struct {
	// Path points at a local JSONL file of {"index": n, "prompt": "..."} rows.
	Path string `yaml:"path"`
	// CatalogURL is an HTTP directory listing to discover dataset files from.
	// When set, Name picks the file to download and Path is ignored.
	CatalogURL string `yaml:"catalog_url"`
	Name       string `yaml:"name"`
	// RemainingIndicesFile restricts the run to a previously recorded subset
	// of indices, used to resume after failures.
	RemainingIndicesFile string `yaml:"remaining_indices_file"`
}

// Processing holds the per-run pipeline settings.
type Processing struct {
	Devices           []string      `yaml:"devices"`
	NumProcsPerDevice int           `yaml:"num_procs_per_device"`
	SaveDir           string        `yaml:"save_dir"`
	SaveBatchSize     int           `yaml:"save_batch_size"`
	SampleRate        int           `yaml:"sample_rate"`
	MaxRetries        int           `yaml:"max_retries"`
	Speaker           string        `yaml:"speaker"`
	Format            string        `yaml:"format"`
	ProgressInterval  time.Duration `yaml:"progress_interval"`
}

// Test bundles the reduced settings used when test_mode is on.
type Test struct {
	NumSamples int        `yaml:"num_samples"`
	Processing Processing `yaml:"processing"`
}

// Upload configures the post-run handoff of the save directory.
type Upload struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Workers  int    `yaml:"workers"`
}

// Config models the full YAML configuration file.
type Config struct {
	Dataset    Dataset    `yaml:"dataset"`
	TestMode   bool       `yaml:"test_mode"`
	Test       Test       `yaml:"test"`
	Processing Processing `yaml:"processing"`
	Upload     Upload     `yaml:"upload"`
}

// Load reads and parses the YAML config file at path.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Active returns the processing settings for this run: the test block when
// test_mode is set, the regular block otherwise. Defaults are applied here so
// validation sees the final values.
func (c Config) Active() Processing {
	p := c.Processing
	if c.TestMode {
		p = c.Test.Processing
	}
	if p.ProgressInterval <= 0 {
		p.ProgressInterval = DefaultProgressInterval
	}
	if p.Format == "" {
		p.Format = FormatParquet
	}
	return p
}

// Validate checks the dataset section. Processing settings are validated by
// the orchestrator right before workers launch.
func (c Config) Validate() error {
	if c.Dataset.Path == "" && c.Dataset.CatalogURL == "" {
		return fmt.Errorf("config: dataset.path or dataset.catalog_url is required")
	}
	if c.Dataset.CatalogURL != "" && c.Dataset.Name == "" {
		return fmt.Errorf("config: dataset.name is required when dataset.catalog_url is set")
	}
	if c.Upload.Enabled && c.Upload.Endpoint == "" {
		return fmt.Errorf("config: upload.endpoint is required when upload.enabled is set")
	}
	return nil
}
