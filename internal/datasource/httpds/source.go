package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Source is an HTTP-backed datasource. It fetches the configured URL with the
// retrying Client and exposes the response body as the input stream.
//
// When CacheDir is set, the body is first downloaded to a file named after
// the URL (see SafeFilenameFromURL) and the file is returned instead, so
// repeated runs against the same URL reuse the local copy.
type Source struct {
	client *Client
	url    string

	// CacheDir, when non-empty, enables download caching.
	CacheDir string
}

// NewSource returns an HTTP source for url using a client built from cfg.
func NewSource(url string, cfg Config) *Source {
	return &Source{client: NewClient(cfg), url: url}
}

// Open fetches the URL and returns the stream to profile. The caller must
// close the returned reader.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.CacheDir != "" {
		return s.openCached(ctx)
	}
	resp, err := s.client.Get(ctx, s.url, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("httpds: unexpected status %d from %s", resp.StatusCode, s.url)
	}
	return resp.Body, nil
}

// openCached downloads the URL into CacheDir once and serves the file copy.
func (s *Source) openCached(ctx context.Context) (io.ReadCloser, error) {
	path := filepath.Join(s.CacheDir, SafeFilenameFromURL(s.url))
	if f, err := os.Open(path); err == nil {
		return f, nil
	}

	resp, err := s.client.Get(ctx, s.url, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpds: unexpected status %d from %s", resp.StatusCode, s.url)
	}

	if err := os.MkdirAll(s.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("httpds: create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.CacheDir, ".download-*")
	if err != nil {
		return nil, fmt.Errorf("httpds: create cache file: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("httpds: download %s: %w", s.url, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, err
	}
	return os.Open(path)
}
