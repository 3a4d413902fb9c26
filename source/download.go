// Package source fetches the raw RIVM, CBS and boundary files and reads them
// into memory without cleaning.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/covidnl/metrics"
)

// ============================================================================
// DOWNLOADER — HTTP GET to a local file
// ============================================================================
// Files are streamed to a temporary sibling and renamed into place, so a
// failed download never leaves a truncated dataset behind.
// ============================================================================

// Target is one file to fetch.
type Target struct {
	URL  string
	Path string
}

// Downloader fetches source files over HTTP.
type Downloader struct {
	client      *http.Client
	log         zerolog.Logger
	concurrency int
}

// NewDownloader creates a downloader. A nil client gets a 5 minute timeout;
// concurrency below 1 means one download at a time.
func NewDownloader(client *http.Client, log zerolog.Logger, concurrency int) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Downloader{client: client, log: log, concurrency: concurrency}
}

// Download fetches url and stores the body at path, creating parent
// directories. Any non-2xx response is an error.
func (d *Downloader) Download(ctx context.Context, url, path string) (err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.Downloads.WithLabelValues(outcome).Inc()
	}()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", url, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("get %s: status %d: %s", url, resp.StatusCode, string(body))
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move %s into place: %w", path, err)
	}

	d.log.Info().Str("url", url).Str("path", path).Int64("bytes", n).Msg("downloaded")
	return nil
}

// DownloadAll fetches every target with bounded concurrency. The first
// failure cancels the downloads still in flight.
func (d *Downloader) DownloadAll(ctx context.Context, targets []Target) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, t := range targets {
		if t.URL == "" {
			continue
		}
		g.Go(func() error {
			return d.Download(ctx, t.URL, t.Path)
		})
	}
	return g.Wait()
}
