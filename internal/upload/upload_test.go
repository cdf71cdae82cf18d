package upload

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureServer struct {
	mu   sync.Mutex
	puts map[string][]byte
}

func newCaptureServer(t *testing.T, fail func(path string) bool) (*httptest.Server, *captureServer) {
	t.Helper()
	cs := &captureServer{puts: map[string][]byte{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if fail != nil && fail(r.URL.Path) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		cs.mu.Lock()
		cs.puts[r.URL.Path] = body
		cs.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, cs
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, contents := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	}
	return dir
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFolder_UploadsEveryFile(t *testing.T) {
	srv, cs := newCaptureServer(t, nil)
	dir := writeTree(t, map[string]string{
		"audio_tokens_0.parquet": "worker zero",
		"audio_tokens_1.parquet": "worker one",
		"failed_indices_0.json":  "[3]",
	})

	err := Folder(context.Background(), dir, srv.URL+"/runs/latest", 2, discardLogger())
	require.NoError(t, err)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	require.Len(t, cs.puts, 3)
	assert.Equal(t, []byte("worker zero"), cs.puts["/runs/latest/audio_tokens_0.parquet"])
	assert.Equal(t, []byte("[3]"), cs.puts["/runs/latest/failed_indices_0.json"])
}

func TestFolder_PartialFailureReportsAllErrors(t *testing.T) {
	srv, cs := newCaptureServer(t, func(path string) bool {
		return filepath.Base(path) == "bad.parquet"
	})
	dir := writeTree(t, map[string]string{
		"good.parquet": "ok",
		"bad.parquet":  "rejected",
	})

	err := Folder(context.Background(), dir, srv.URL, 2, discardLogger())
	require.Error(t, err)
	assert.ErrorContains(t, err, "bad.parquet")

	cs.mu.Lock()
	defer cs.mu.Unlock()
	assert.Contains(t, cs.puts, "/good.parquet", "other files still upload")
}

func TestFolder_EmptyDirIsNoop(t *testing.T) {
	srv, cs := newCaptureServer(t, nil)
	err := Folder(context.Background(), t.TempDir(), srv.URL, 2, discardLogger())
	require.NoError(t, err)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	assert.Empty(t, cs.puts)
}

func TestFolder_CancelledContextIsAnError(t *testing.T) {
	srv, cs := newCaptureServer(t, nil)
	dir := writeTree(t, map[string]string{
		"a.parquet": "x",
		"b.parquet": "y",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Folder(ctx, dir, srv.URL, 1, discardLogger())
	require.Error(t, err, "an incomplete upload must not look like success")
	assert.ErrorIs(t, err, context.Canceled)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	assert.Empty(t, cs.puts)
}

func TestFolder_BadEndpoint(t *testing.T) {
	dir := writeTree(t, map[string]string{"f.parquet": "x"})
	err := Folder(context.Background(), dir, "://not-a-url", 2, discardLogger())
	require.Error(t, err)
	assert.ErrorContains(t, err, "parse upload endpoint")
}
