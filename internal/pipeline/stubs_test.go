package pipeline

import (
	"errors"
	"io"
	"log/slog"

	"voxparquet/internal/sink"
	"voxparquet/internal/speakers"
)

// stubSynth fails the first failures calls, then succeeds.
type stubSynth struct {
	calls    int
	failures int
}

func (s *stubSynth) Synthesize(text string, spk speakers.Speaker) ([]float32, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, errors.New("transient synthesis failure")
	}
	return []float32{0.1, -0.2, 0.3}, nil
}

type stubTokenizer struct {
	err error
}

func (t *stubTokenizer) Encode(signal []float32, sampleRate int) ([]int64, error) {
	if t.err != nil {
		return nil, t.err
	}
	return []int64{1, 2, 3}, nil
}

// memSink records appended batches in memory.
type memSink struct {
	batches   [][]sink.Record
	appendErr error
	closed    bool
	closeErr  error
}

func (m *memSink) AppendBatch(records []sink.Record) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	batch := make([]sink.Record, len(records))
	copy(batch, records)
	m.batches = append(m.batches, batch)
	return nil
}

func (m *memSink) Close() error {
	m.closed = true
	return m.closeErr
}

func (m *memSink) total() int {
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
