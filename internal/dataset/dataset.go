package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Item is one unit of work: a globally unique, stable index and the prompt
// text to synthesize. Items are never mutated after loading.
type Item struct {
	Index  int64  `json:"index"`
	Prompt string `json:"prompt"`
}

// Load reads a JSONL dataset file, one item per line. Blank lines are
// skipped. Items missing an explicit index are numbered by file position so
// that indices stay stable across runs of the same file.
func Load(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	var items []Item
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var raw struct {
			Index  *int64 `json:"index"`
			Prompt string `json:"prompt"`
		}
		if err := json.Unmarshal(line, &raw); err != nil {
			return nil, fmt.Errorf("parse dataset %s line %d: %w", path, lineNumber, err)
		}
		item := Item{Prompt: raw.Prompt, Index: int64(len(items))}
		if raw.Index != nil {
			item.Index = *raw.Index
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return items, nil
}

// Select returns the items whose indices appear in indices, preserving the
// dataset's original relative order. Unknown indices are ignored.
func Select(items []Item, indices []int64) []Item {
	wanted := make(map[int64]bool, len(indices))
	for _, idx := range indices {
		wanted[idx] = true
	}
	out := make([]Item, 0, len(indices))
	for _, item := range items {
		if wanted[item.Index] {
			out = append(out, item)
		}
	}
	return out
}

// Head returns the first n items, used by test mode.
func Head(items []Item, n int) []Item {
	if n < 0 || n > len(items) {
		n = len(items)
	}
	return items[:n]
}

// MergeIndexFiles reads several JSON index files and returns their union,
// deduplicated and sorted. Used to fold per-worker failed-index files into
// one remaining-indices file.
func MergeIndexFiles(paths []string) ([]int64, error) {
	seen := make(map[int64]bool)
	for _, path := range paths {
		indices, err := LoadIndices(path)
		if err != nil {
			return nil, err
		}
		for _, idx := range indices {
			seen[idx] = true
		}
	}
	merged := make([]int64, 0, len(seen))
	for idx := range seen {
		merged = append(merged, idx)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i] < merged[j] })
	return merged, nil
}

// LoadIndices reads a JSON array of indices, as written by failed-index
// files and by the failed command.
func LoadIndices(path string) ([]int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read indices %s: %w", path, err)
	}
	var indices []int64
	if err := json.Unmarshal(data, &indices); err != nil {
		return nil, fmt.Errorf("parse indices %s: %w", path, err)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	return indices, nil
}
