package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxparquet/internal/speakers"
)

func newTestWorker(t *testing.T, chunkSize, batchSize int, s *stubSynth, ms *memSink, counter *Counter) (*Worker, string) {
	t.Helper()
	spk, err := speakers.Lookup("default")
	require.NoError(t, err)
	failedPath := filepath.Join(t.TempDir(), "failed_indices_0.json")
	proc := NewItemProcessor(s, &stubTokenizer{}, spk, 24000, 3, discardLogger())
	acc := NewAccumulator(ms, failedPath, batchSize)
	w := NewWorker(0, "cpu0", makeItems(chunkSize), proc, acc, ms, counter, discardLogger())
	return w, failedPath
}

func TestWorker_ProcessesChunkAndDrains(t *testing.T) {
	var counter Counter
	ms := &memSink{}
	w, failedPath := newTestWorker(t, 5, 3, &stubSynth{}, ms, &counter)

	require.NoError(t, w.Run(context.Background()))

	// One flush at 3, residual 2 on drain.
	require.Len(t, ms.batches, 2)
	assert.Len(t, ms.batches[0], 3)
	assert.Len(t, ms.batches[1], 2)
	assert.Equal(t, int64(5), counter.Load())
	assert.True(t, ms.closed)
	assert.Equal(t, StateDone, w.Status().State)

	_, err := os.Stat(failedPath)
	assert.True(t, os.IsNotExist(err), "no failures, no failed-index file")
}

func TestWorker_FailedItemAccountedOnce(t *testing.T) {
	var counter Counter
	ms := &memSink{}
	// Every attempt for the first item fails (3 retries), the rest succeed.
	s := &stubSynth{failures: 3}
	w, failedPath := newTestWorker(t, 4, 10, s, ms, &counter)

	require.NoError(t, w.Run(context.Background()))

	assert.Equal(t, int64(3), counter.Load(), "counter counts successes, not attempts")
	assert.Equal(t, []int64{0}, readFailedFile(t, failedPath))
	assert.Equal(t, 3, ms.total())

	// The failed index never shows up in the successful output.
	for _, batch := range ms.batches {
		for _, rec := range batch {
			assert.NotEqual(t, int64(0), rec.Index)
		}
	}
}

func TestWorker_DurableWriteFailureAborts(t *testing.T) {
	var counter Counter
	ms := &memSink{appendErr: errors.New("disk full")}
	w, _ := newTestWorker(t, 5, 2, &stubSynth{}, ms, &counter)

	err := w.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDurableWrite)
	assert.Equal(t, StateFailed, w.Status().State)
	// Items after the failed flush were never processed.
	assert.Less(t, w.Status().Processed, int64(5))
	assert.True(t, ms.closed, "sink released even on abort")
}

func TestWorker_AbortSurvivesSinkCloseError(t *testing.T) {
	var counter Counter
	ms := &memSink{appendErr: errors.New("disk full"), closeErr: errors.New("also broken")}
	w, _ := newTestWorker(t, 3, 1, &stubSynth{}, ms, &counter)

	err := w.Run(context.Background())
	require.Error(t, err)
	// The original write failure is what surfaces, not the close error.
	assert.ErrorIs(t, err, ErrDurableWrite)
	assert.ErrorContains(t, err, "disk full")
	assert.True(t, ms.closed)
}

func TestWorker_CancelledContextStillDrains(t *testing.T) {
	var counter Counter
	ms := &memSink{}
	w, _ := newTestWorker(t, 5, 100, &stubSynth{}, ms, &counter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, w.Run(ctx))

	// Nothing processed, but the worker still went through drain and close.
	assert.Zero(t, counter.Load())
	assert.True(t, ms.closed)
	assert.Equal(t, StateDone, w.Status().State)
}
