package app

import (
	"database/sql"
	"net/http"

	"github.com/guttosm/spimexpulse/config"
	"github.com/guttosm/spimexpulse/internal/ingestion"
	"github.com/guttosm/spimexpulse/internal/storage"
)

// IngestOptions are the per-run switches given on the command line.
type IngestOptions struct {
	Dir     string // overrides SPIMEX_DOWNLOAD_DIR when set
	Reset   bool
	Force   bool
	Offline bool
}

// NewIngestion wires an ingestion Orchestrator from the application
// configuration: a crawler HTTP client with the configured timeout, the
// shared request limiter and the Postgres repository.
func NewIngestion(cfg config.Config, db *sql.DB, opts IngestOptions) *ingestion.Orchestrator {
	dir := cfg.Spimex.DownloadDir
	if opts.Dir != "" {
		dir = opts.Dir
	}

	run := ingestion.Config{
		Source: ingestion.Source{
			BaseURL: cfg.Spimex.BaseURL,
			Origin:  cfg.Spimex.Origin,
			MinYear: cfg.Spimex.MinYear,
			MaxYear: cfg.Spimex.MaxYear,
		},
		Dir:       dir,
		TableName: cfg.Spimex.TableName,
		Workers:   cfg.Spimex.DownloadWorkers,
		Layout:    ingestion.DefaultLayout,
		Reset:     opts.Reset,
		Force:     opts.Force,
		Offline:   opts.Offline,
	}

	client := &http.Client{Timeout: cfg.Spimex.HTTPTimeout}
	limiter := ingestion.NewLimiter(cfg.Spimex.RequestsPerSecond)

	return ingestion.NewOrchestrator(run, client, limiter, storage.NewTradingResultsRepository(db))
}
