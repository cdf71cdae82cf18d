package dataset

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"voxparquet/internal/util"
)

// DiscoverCatalog fetches an HTTP directory listing and returns the absolute
// URLs of all JSONL dataset files it links to, sorted for stable selection.
func DiscoverCatalog(ctx context.Context, client *http.Client, catalogURL string, logger *slog.Logger) ([]string, error) {
	logger.Info("Discovering dataset files.", slog.String("catalog_url", catalogURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, catalogURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request %s: %w", catalogURL, err)
	}
	body, err := util.FetchFile(client, req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog %s: %w", catalogURL, err)
	}

	links, err := util.ScrapeLinks(bytes.NewReader(body), ".jsonl")
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", catalogURL, err)
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("no dataset files found at %s", catalogURL)
	}

	base, err := url.Parse(catalogURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url %s: %w", catalogURL, err)
	}
	urls := make([]string, 0, len(links))
	for _, link := range links {
		ref, err := url.Parse(link)
		if err != nil {
			logger.Warn("Skipping unparseable catalog link.", slog.String("link", link), "error", err)
			continue
		}
		urls = append(urls, base.ResolveReference(ref).String())
	}
	sort.Strings(urls)

	logger.Info("Catalog discovery complete.", slog.Int("file_count", len(urls)))
	return urls, nil
}

// FetchFromCatalog downloads the catalog file whose base name matches name
// into cacheDir and returns the local path. An already cached copy is reused.
func FetchFromCatalog(ctx context.Context, client *http.Client, catalogURL, name, cacheDir string, logger *slog.Logger) (string, error) {
	localPath := filepath.Join(cacheDir, name)
	if _, err := os.Stat(localPath); err == nil {
		logger.Info("Using cached dataset file.", slog.String("path", localPath))
		return localPath, nil
	}

	urls, err := DiscoverCatalog(ctx, client, catalogURL, logger)
	if err != nil {
		return "", err
	}

	var fileURL string
	for _, u := range urls {
		if filepath.Base(u) == name {
			fileURL = u
			break
		}
	}
	if fileURL == "" {
		return "", fmt.Errorf("dataset %s not found in catalog %s", name, catalogURL)
	}

	logger.Info("Downloading dataset file.", slog.String("url", fileURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("build dataset request %s: %w", fileURL, err)
	}
	data, err := util.FetchFile(client, req)
	if err != nil {
		return "", fmt.Errorf("download dataset %s: %w", fileURL, err)
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir %s: %w", cacheDir, err)
	}
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write dataset %s: %w", localPath, err)
	}
	logger.Info("Dataset file cached.", slog.String("path", localPath), slog.Int("bytes", len(data)))
	return localPath, nil
}
