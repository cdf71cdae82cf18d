// Package sink persists processed records. Each worker owns exactly one
// sink; sinks are never shared across workers.
package sink

import (
	"fmt"

	"voxparquet/internal/config"
)

// Record is one successfully processed item in its serialized form.
type Record struct {
	Index  int64
	Audio  string
	Tokens string
}

// RecordSink is a worker-private, append-only record store. AppendBatch must
// make the batch durable before returning; a failed append is fatal to the
// owning worker and is not retried.
type RecordSink interface {
	AppendBatch(records []Record) error
	Close() error
}

// Open creates the sink for one worker in dir. The physical output is keyed
// by worker id: a parquet file or a DuckDB table per worker.
func Open(format, dir string, workerID int) (RecordSink, error) {
	switch format {
	case config.FormatParquet:
		return newParquetSink(dir, workerID)
	case config.FormatDuckDB:
		return newDuckDBSink(dir, workerID)
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
