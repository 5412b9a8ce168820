// Package fetch downloads the blood donation datasets from the
// data.gov.my object store into the local datasets directory.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"
)

// userAgent identifies the fetcher to the upstream object store.
const userAgent = "darahcli-fetch/1.0"

// RemoteInfo describes the upstream copy of a dataset.
type RemoteInfo struct {
	URL          string
	Size         int64
	LastModified time.Time
}

// Fetcher downloads dataset files with polite pacing against the
// upstream host. Downloads land in a temporary file and replace the
// destination atomically, so a failed transfer never clobbers a
// usable local dataset.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewFetcher creates a fetcher with the given request timeout. One
// request per second is plenty for two dataset files and keeps the
// fetcher a good citizen of the public mirror.
func NewFetcher(timeout time.Duration, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		logger:  logger,
	}
}

// CheckRemote asks the upstream for the dataset's size and
// modification time without downloading it.
func (f *Fetcher) CheckRemote(ctx context.Context, url string) (*RemoteInfo, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote check of %s returned status %d", url, resp.StatusCode)
	}

	info := &RemoteInfo{URL: url, Size: resp.ContentLength}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			info.LastModified = t
		}
	}
	return info, nil
}

// NeedsRefresh reports whether the local copy is missing or older than
// the upstream one. When the upstream sends no usable Last-Modified
// header the local copy is treated as stale.
func (f *Fetcher) NeedsRefresh(ctx context.Context, url, localPath string) (bool, error) {
	stat, err := os.Stat(localPath)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", localPath, err)
	}

	remote, err := f.CheckRemote(ctx, url)
	if err != nil {
		return false, err
	}
	if remote.LastModified.IsZero() {
		return true, nil
	}
	return remote.LastModified.After(stat.ModTime()), nil
}

// Download fetches the dataset at url into destPath.
func (f *Fetcher) Download(ctx context.Context, url, destPath string) error {
	start := time.Now()
	f.logger.InfoContext(ctx, "downloading dataset",
		slog.String("url", url),
		slog.String("dest", destPath))

	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download of %s returned status %d", url, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}

	partial := destPath + ".partial"
	out, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", partial, err)
	}

	written, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(partial)
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}

	if err := os.Rename(partial, destPath); err != nil {
		os.Remove(partial)
		return fmt.Errorf("failed to move download into place: %w", err)
	}

	f.logger.InfoContext(ctx, "dataset downloaded",
		slog.String("dest", destPath),
		slog.Int64("bytes", written),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// FetchDataset downloads the dataset unless the local copy is already
// current. Returns true when a download actually happened.
func (f *Fetcher) FetchDataset(ctx context.Context, url, destPath string, force bool) (bool, error) {
	if !force {
		refresh, err := f.NeedsRefresh(ctx, url, destPath)
		if err != nil {
			return false, err
		}
		if !refresh {
			f.logger.InfoContext(ctx, "local dataset is current, skipping download",
				slog.String("dest", destPath))
			return false, nil
		}
	}

	if err := f.Download(ctx, url, destPath); err != nil {
		return false, err
	}
	return true, nil
}
