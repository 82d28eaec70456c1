// Package metrics registers the process counters and exposes them in the
// Prometheus text format.
//
// Registers:
//
//	spimex_report_downloads_total{result}
//	spimex_files_processed_total{status}
//	spimex_rows_persisted_total
//	spimex_rows_skipped_total
//	spimex_cache_lookups_total{result}
//	spimex_http_requests_total{method,route,status}
//	spimex_http_request_duration_seconds{method,route}
//	go_* and process_* system metrics
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/guttosm/spimexpulse/internal/logger"
)

// Registry holds every collector of the process.
var Registry = prometheus.NewRegistry()

var (
	ReportDownloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spimex_report_downloads_total",
			Help: "Report file downloads by result (ok, failed)",
		},
		[]string{"result"},
	)

	FilesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spimex_files_processed_total",
			Help: "Report files handled by the ingestion run, by status",
		},
		[]string{"status"},
	)

	RowsPersisted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spimex_rows_persisted_total",
		Help: "Trading result rows committed to the store",
	})

	RowsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spimex_rows_skipped_total",
		Help: "Table rows dropped because they could not be normalized",
	})

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spimex_cache_lookups_total",
			Help: "Query cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spimex_http_requests_total",
			Help: "HTTP requests served, by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spimex_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	Registry.MustRegister(
		ReportDownloads,
		FilesProcessed,
		RowsPersisted,
		RowsSkipped,
		CacheLookups,
		httpRequests,
		httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware counts requests and observes their latency per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Serve exposes /metrics on addr until ctx is done. Used by the ingest mode,
// which has no API router of its own.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.L().Info().Str("addr", addr).Msg("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
