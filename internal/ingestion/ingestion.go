package ingestion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/guttosm/spimexpulse/internal/domain/models"
	"github.com/guttosm/spimexpulse/internal/logger"
	"github.com/guttosm/spimexpulse/internal/metrics"
	"github.com/guttosm/spimexpulse/internal/spreadsheet"
	"github.com/guttosm/spimexpulse/internal/storage"
)

// ErrNoTable is returned by ProcessFile when the report holds no matching table.
var ErrNoTable = errors.New("table not found")

// readSheet is an indirection for reading workbooks; tests can override this.
var readSheet = spreadsheet.ReadFirstSheet

// Config drives one ingestion run.
type Config struct {
	Source    Source
	Dir       string // flat download directory
	TableName string // marker cell opening the table block
	Workers   int    // concurrent downloads
	Layout    Layout

	Reset   bool // empty the store before ingesting (full rebuild)
	Force   bool // re-ingest files already recorded in the ingestion log
	Offline bool // skip discovery and download, process the directory as is
}

// RunReport is the structured outcome of a run.
type RunReport struct {
	LinksDiscovered   int           `json:"links_discovered"`
	FilesDownloaded   int           `json:"files_downloaded"`
	DownloadsFailed   int           `json:"downloads_failed"`
	FilesProcessed    int           `json:"files_processed"`
	FilesSkipped      int           `json:"files_skipped"`
	FilesWithoutTable int           `json:"files_without_table"`
	FilesFailed       int           `json:"files_failed"`
	RowsPersisted     int           `json:"rows_persisted"`
	RowsSkipped       int           `json:"rows_skipped"`
	FailedFiles       []string      `json:"failed_files,omitempty"`
	Elapsed           time.Duration `json:"elapsed"`
}

// Orchestrator sequences Reset → Discover → Fetch → per file
// {Extract → Filter → Normalize → Persist}.
type Orchestrator struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	repo    storage.TradingResultsRepository
}

// NewOrchestrator builds an Orchestrator; limiter may be nil.
func NewOrchestrator(cfg Config, client *http.Client, limiter *rate.Limiter, repo storage.TradingResultsRepository) *Orchestrator {
	if cfg.Layout == (Layout{}) {
		cfg.Layout = DefaultLayout
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Orchestrator{cfg: cfg, client: client, limiter: limiter, repo: repo}
}

// Run executes one ingestion. Per-file failures are logged and counted in the
// report; only reset, discovery, directory and cancellation errors abort it.
func (o *Orchestrator) Run(ctx context.Context) (*RunReport, error) {
	start := time.Now()
	report := &RunReport{}
	defer func() { report.Elapsed = time.Since(start) }()

	logger.L().Info().
		Str("dir", o.cfg.Dir).
		Bool("reset", o.cfg.Reset).
		Bool("force", o.cfg.Force).
		Bool("offline", o.cfg.Offline).
		Msg("ingestion start")

	if o.cfg.Reset {
		if err := o.repo.Reset(ctx); err != nil {
			return report, fmt.Errorf("reset store: %w", err)
		}
		logger.L().Info().Msg("store reset")
	}

	if !o.cfg.Offline {
		if err := o.fetch(ctx, report); err != nil {
			return report, err
		}
	}

	files, err := o.listFiles()
	if err != nil {
		return report, err
	}

	for i, name := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		o.processOne(ctx, i+1, len(files), name, report)
	}

	report.Elapsed = time.Since(start)
	logger.L().Info().
		Int("links_discovered", report.LinksDiscovered).
		Int("files_downloaded", report.FilesDownloaded).
		Int("downloads_failed", report.DownloadsFailed).
		Int("files_processed", report.FilesProcessed).
		Int("files_skipped", report.FilesSkipped).
		Int("files_without_table", report.FilesWithoutTable).
		Int("files_failed", report.FilesFailed).
		Int("rows_persisted", report.RowsPersisted).
		Int("rows_skipped", report.RowsSkipped).
		Strs("failed_files", report.FailedFiles).
		Dur("elapsed", report.Elapsed).
		Msg("ingestion done")

	return report, nil
}

func (o *Orchestrator) fetch(ctx context.Context, report *RunReport) error {
	links, err := NewDiscovery(o.client, o.limiter, o.cfg.Source).Discover(ctx)
	if err != nil {
		return fmt.Errorf("discover reports: %w", err)
	}
	report.LinksDiscovered = len(links)

	fetcher, err := NewFetcher(o.client, o.limiter, o.cfg.Dir, o.cfg.Layout, o.cfg.Workers)
	if err != nil {
		return err
	}
	res, err := fetcher.FetchAll(ctx, links)
	report.FilesDownloaded = len(res.Downloaded)
	report.DownloadsFailed = len(res.Failed)
	if err != nil {
		return fmt.Errorf("fetch reports: %w", err)
	}
	return nil
}

// listFiles returns the report files of the download directory in name order,
// which is chronological for the publisher's naming scheme.
func (o *Orchestrator) listFiles() ([]string, error) {
	entries, err := os.ReadDir(o.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("read download dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), o.cfg.Layout.FileExt) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

func (o *Orchestrator) processOne(ctx context.Context, idx, total int, name string, report *RunReport) {
	start := time.Now()
	log := logger.L().With().Int("idx", idx).Int("total", total).Str("file", name).Logger()

	var replace bool
	if !o.cfg.Reset {
		done, err := o.repo.HasIngestedFile(ctx, name)
		if err != nil {
			o.fail(report, name, "failed")
			log.Error().Err(err).Msg("check ingestion log failed")
			return
		}
		if done && !o.cfg.Force {
			report.FilesSkipped++
			metrics.FilesProcessed.WithLabelValues("skipped").Inc()
			log.Debug().Msg("already ingested")
			return
		}
		replace = done
	}

	persisted, skipped, err := o.processFile(ctx, filepath.Join(o.cfg.Dir, name), replace)
	report.RowsSkipped += skipped
	metrics.RowsSkipped.Add(float64(skipped))

	switch {
	case errors.Is(err, ErrNoTable):
		report.FilesWithoutTable++
		metrics.FilesProcessed.WithLabelValues("no_table").Inc()
		log.Warn().Msg("table not found")
	case err != nil:
		o.fail(report, name, "failed")
		log.Error().Dur("elapsed", time.Since(start)).Err(err).Msg("file failed")
	default:
		report.FilesProcessed++
		report.RowsPersisted += persisted
		metrics.FilesProcessed.WithLabelValues("ok").Inc()
		metrics.RowsPersisted.Add(float64(persisted))
		log.Info().Int("rows", persisted).Int("skipped_rows", skipped).Dur("elapsed", time.Since(start)).Msg("file done")
	}
}

func (o *Orchestrator) fail(report *RunReport, name, status string) {
	report.FilesFailed++
	report.FailedFiles = append(report.FailedFiles, name)
	metrics.FilesProcessed.WithLabelValues(status).Inc()
}

// ProcessFile extracts, filters, normalizes and persists one report.
//
// It returns the number of rows committed and the number of rows dropped by
// the normalizer. A file whose table is missing is still recorded in the
// ingestion log and yields ErrNoTable.
func (o *Orchestrator) ProcessFile(ctx context.Context, path string) (persisted, skipped int, err error) {
	return o.processFile(ctx, path, false)
}

// processFile with replace set drops the rows already stored for the file's
// date in the same transaction that commits the new ones.
func (o *Orchestrator) processFile(ctx context.Context, path string, replace bool) (persisted, skipped int, err error) {
	name := filepath.Base(path)
	date, err := o.cfg.Layout.DateFromFilename(name)
	if err != nil {
		return 0, 0, err
	}

	rows, err := readSheet(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read sheet: %w", err)
	}

	table := ExtractTable(rows, o.cfg.TableName)
	if table == nil {
		if err := o.repo.SaveFile(ctx, models.IngestedFile{Filename: name, FileDate: date, ReplaceDate: replace}, nil); err != nil {
			return 0, 0, fmt.Errorf("record empty file: %w", err)
		}
		return 0, 0, ErrNoTable
	}

	filtered := FilterByColumn(table, o.cfg.Layout.CountColumn, Positive)
	results, skipped, err := o.cfg.Layout.Normalize(filtered, name)
	if err != nil {
		return 0, 0, err
	}

	file := models.IngestedFile{Filename: name, FileDate: date, RowCount: len(results), ReplaceDate: replace}
	if err := o.repo.SaveFile(ctx, file, results); err != nil {
		return 0, skipped, fmt.Errorf("persist: %w", err)
	}
	return len(results), skipped, nil
}
