package pipeline

import "sync/atomic"

// Counter is the run-wide processed-item count. Workers increment it exactly
// once per successfully processed item; the orchestrator only reads it.
// Readers may observe a value that lags in-flight increments; it is a
// progress estimate, not a correctness gate.
type Counter struct {
	n atomic.Int64
}

// Inc records one successfully processed item.
func (c *Counter) Inc() { c.n.Add(1) }

// Load returns the current count.
func (c *Counter) Load() int64 { return c.n.Load() }
