// Package upload pushes a finished save directory to remote object storage.
// It runs strictly after all workers have joined.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"voxparquet/internal/util"
)

// Folder uploads every regular file under dir to endpoint/<relative-path>
// using numWorkers concurrent PUTs. Individual upload failures do not stop
// the remaining files; all errors come back joined.
func Folder(ctx context.Context, dir, endpoint string, numWorkers int, logger *slog.Logger) error {
	logger.Info("Uploading output directory.", slog.String("dir", dir), slog.String("endpoint", endpoint))

	base, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("parse upload endpoint %s: %w", endpoint, err)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk save dir %s: %w", dir, err)
	}
	if len(files) == 0 {
		logger.Info("Nothing to upload.")
		return nil
	}

	client := util.DefaultHTTPClient()
	jobs := make(chan string, len(files))
	var wg sync.WaitGroup
	var uploadErrsMu sync.Mutex
	var uploadErrs []error

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			workerLog := logger.With(slog.Int("worker_id", workerID), slog.String("component", "uploader"))
			for path := range jobs {
				rel, relErr := filepath.Rel(dir, path)
				if relErr != nil {
					rel = filepath.Base(path)
				}
				if ctx.Err() != nil {
					// A skipped file is still a failed upload.
					workerLog.Warn("Upload cancelled.", slog.String("file", rel), "error", ctx.Err())
					uploadErrsMu.Lock()
					uploadErrs = append(uploadErrs, fmt.Errorf("upload %s: %w", rel, ctx.Err()))
					uploadErrsMu.Unlock()
					continue
				}
				target := base.JoinPath(filepath.ToSlash(rel)).String()

				data, readErr := os.ReadFile(path)
				if readErr != nil {
					uploadErrsMu.Lock()
					uploadErrs = append(uploadErrs, fmt.Errorf("read %s: %w", path, readErr))
					uploadErrsMu.Unlock()
					continue
				}
				if putErr := util.PutFile(ctx, client, target, data); putErr != nil {
					workerLog.Error("Upload failed.", slog.String("file", rel), "error", putErr)
					uploadErrsMu.Lock()
					uploadErrs = append(uploadErrs, fmt.Errorf("upload %s: %w", rel, putErr))
					uploadErrsMu.Unlock()
					continue
				}
				workerLog.Info("Uploaded.", slog.String("file", rel), slog.Int("bytes", len(data)))
			}
		}(i)
	}

	for _, path := range files {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	uploadErrsMu.Lock()
	finalErr := errors.Join(uploadErrs...)
	uploadErrsMu.Unlock()
	if finalErr != nil {
		logger.Error("Upload completed with errors.", "error", finalErr)
		return finalErr
	}
	logger.Info("Upload complete.", slog.Int("files", len(files)))
	return nil
}
