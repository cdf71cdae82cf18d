package pipeline

import "errors"

var (
	// ErrConfiguration marks missing or invalid settings. It is always
	// raised before any worker launches.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrDurableWrite marks a failed batch or failed-index flush. It is
	// fatal to the owning worker and never retried; the worker's remaining
	// items stay unprocessed until an operator re-runs them.
	ErrDurableWrite = errors.New("durable write failed")
)
