package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/guttosm/spimexpulse/internal/logger"
	"github.com/guttosm/spimexpulse/internal/metrics"
)

const defaultWorkers = 8

// FetchResult summarizes one FetchAll call.
type FetchResult struct {
	Downloaded []string // filenames written during this call, sorted
	Skipped    int      // links whose file was already present (or repeated)
	Failed     []string // links that could not be downloaded, sorted
}

// Fetcher downloads report files into a flat directory.
//
// The set of files already present is read once, when the Fetcher is built.
// Presence of a filename is the only dedup signal.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	dir     string
	layout  Layout
	workers int

	mu      sync.Mutex
	present map[string]struct{}
}

// NewFetcher creates dir if needed and snapshots its content.
func NewFetcher(client *http.Client, limiter *rate.Limiter, dir string, layout Layout, workers int) (*Fetcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read download dir: %w", err)
	}

	present := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			present[e.Name()] = struct{}{}
		}
	}

	if workers < 1 {
		workers = defaultWorkers
	}

	return &Fetcher{
		client:  client,
		limiter: limiter,
		dir:     dir,
		layout:  layout,
		workers: workers,
		present: present,
	}, nil
}

// FetchAll downloads every link whose file is not present yet.
//
// Downloads run concurrently, at most f.workers at a time. A failing download
// is logged and reported in FetchResult.Failed; it never stops its siblings.
// The returned error is non-nil only when ctx was cancelled.
func (f *Fetcher) FetchAll(ctx context.Context, links []string) (FetchResult, error) {
	var (
		res FetchResult
		mu  sync.Mutex
	)

	g := new(errgroup.Group)
	g.SetLimit(f.workers)

	for _, link := range links {
		name, err := f.layout.FilenameFor(link)
		if err != nil {
			logger.L().Warn().Str("url", link).Err(err).Msg("link skipped")
			mu.Lock()
			res.Failed = append(res.Failed, link)
			mu.Unlock()
			continue
		}
		if !f.claim(name) {
			res.Skipped++
			continue
		}

		g.Go(func() error {
			start := time.Now()
			if err := f.download(ctx, link, name); err != nil {
				f.release(name)
				metrics.ReportDownloads.WithLabelValues("failed").Inc()
				logger.L().Error().Str("url", link).Str("file", name).Err(err).Msg("download failed")
				mu.Lock()
				res.Failed = append(res.Failed, link)
				mu.Unlock()
				return nil
			}
			metrics.ReportDownloads.WithLabelValues("ok").Inc()
			logger.L().Debug().Str("file", name).Dur("elapsed", time.Since(start)).Msg("download done")
			mu.Lock()
			res.Downloaded = append(res.Downloaded, name)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(res.Downloaded)
	sort.Strings(res.Failed)

	logger.L().Info().
		Int("downloaded", len(res.Downloaded)).
		Int("skipped", res.Skipped).
		Int("failed", len(res.Failed)).
		Msg("fetch done")

	return res, ctx.Err()
}

// claim marks name as present; false means it already was.
func (f *Fetcher) claim(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.present[name]; ok {
		return false
	}
	f.present[name] = struct{}{}
	return true
}

func (f *Fetcher) release(name string) {
	f.mu.Lock()
	delete(f.present, name)
	f.mu.Unlock()
}

// download writes the body to a temporary file renamed into place on success,
// so an interrupted download never looks present on the next run.
func (f *Fetcher) download(ctx context.Context, link, name string) error {
	if err := wait(ctx, f.limiter); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(f.dir, name+".*.part")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(f.dir, name)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
