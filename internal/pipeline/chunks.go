package pipeline

import (
	"fmt"

	"voxparquet/internal/dataset"
)

// Chunks partitions items into workers non-overlapping, size-balanced
// shares. Every item appears in exactly one chunk, chunk sizes differ by at
// most one, and order within a chunk preserves the dataset order. Pure; the
// returned chunks alias the input slice.
func Chunks(items []dataset.Item, workers int) ([][]dataset.Item, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("%w: worker count %d must be positive", ErrConfiguration, workers)
	}

	chunks := make([][]dataset.Item, 0, workers)
	base := len(items) / workers
	extra := len(items) % workers

	start := 0
	for i := 0; i < workers; i++ {
		size := base
		// The first len(items) mod workers chunks carry one extra item.
		if i < extra {
			size++
		}
		chunks = append(chunks, items[start:start+size])
		start += size
	}
	return chunks, nil
}
