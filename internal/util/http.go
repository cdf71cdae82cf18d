package util

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultHTTPClient creates an http.Client with a timeout suited to large
// dataset transfers.
func DefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 120 * time.Second}
}

// FetchFile executes a pre-built request and returns the body bytes. The
// caller builds the request so it controls context and headers.
func FetchFile(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do request for %s: %w", req.URL.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		limited := io.LimitReader(resp.Body, 512)
		body, _ := io.ReadAll(limited)
		return nil, fmt.Errorf("bad status '%s' fetching %s: %s", resp.Status, req.URL.String(), string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body from %s: %w", req.URL.String(), err)
	}
	return body, nil
}

// PutFile uploads data to url with an HTTP PUT. Any non-2xx status is an
// error.
func PutFile(ctx context.Context, client *http.Client, url string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build PUT %s: %w", url, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("http PUT %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		limited := io.LimitReader(resp.Body, 512)
		body, _ := io.ReadAll(limited)
		return fmt.Errorf("bad status '%s' uploading %s: %s", resp.Status, url, string(body))
	}
	return nil
}
