package main

//
//  @title           spimexpulse API
//  @version         1.0
//  @description     SPIMEX oil products trading results ingestion & query service.
//  @termsOfService  https://github.com/guttosm/spimexpulse
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/spimexpulse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        tradings
//  @tag.description Endpoints for querying SPIMEX trading results
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guttosm/spimexpulse/config"
	"github.com/guttosm/spimexpulse/db"
	_ "github.com/guttosm/spimexpulse/docs" // swagger docs
	"github.com/guttosm/spimexpulse/internal/app"
	"github.com/guttosm/spimexpulse/internal/logger"
	"github.com/guttosm/spimexpulse/internal/metrics"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// runIngestion migrates the schema and executes one ingestion run.
// SIGINT/SIGTERM cancel the run between files; committed files stay committed.
func runIngestion(opts app.IngestOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := app.InitPostgres(config.AppConfig)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if err := db.Migrate(ctx, conn); err != nil {
		return err
	}

	if addr := config.AppConfig.Server.MetricsAddr; addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr); err != nil {
				logger.L().Error().Err(err).Str("addr", addr).Msg("metrics server failed")
			}
		}()
	}

	report, err := app.NewIngestion(config.AppConfig, conn, opts).Run(ctx)
	if err != nil {
		return err
	}
	if report.FilesFailed > 0 {
		logger.L().Warn().Strs("failed_files", report.FailedFiles).Msg("some files were not ingested")
	}
	return nil
}

// main is the entry point of the spimexpulse application.
//
// Modes (selected via --mode flag):
//   - ingest: Discovers, downloads and loads SPIMEX oil trading reports into PostgreSQL.
//   - api:    Starts the REST API exposing the stored trading results.
//
// Flags:
//   - --mode:    Execution mode ("ingest" or "api"). Default: "ingest".
//   - --dir:     Download directory. Defaults to SPIMEX_DOWNLOAD_DIR.
//   - --reset:   Empty the store before ingesting. Default: true.
//   - --force:   Re-ingest files already present in the ingestion log (incremental runs).
//   - --offline: Skip discovery and download; process the directory as it is.
//   - --port:    Port for the API server. Defaults to value from config (SERVER_PORT).
func main() {
	ctx := context.Background()

	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	// Parse CLI flags (override config defaults if provided)
	mode := flag.String("mode", "ingest", "Mode: ingest or api")
	dir := flag.String("dir", "", "Download directory (default SPIMEX_DOWNLOAD_DIR)")
	reset := flag.Bool("reset", true, "Empty the store before ingesting (full rebuild)")
	force := flag.Bool("force", false, "Re-ingest files already recorded (deletes existing rows for their date)")
	offline := flag.Bool("offline", false, "Process the download directory without crawling the publisher")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "ingest":
		logger.L().Info().Msg("running ingestion")

		opts := app.IngestOptions{Dir: *dir, Reset: *reset, Force: *force, Offline: *offline}
		if err := runIngestion(opts); err != nil {
			logger.L().Fatal().Err(err).Msg("ingestion failed")
		}
		logger.L().Info().Msg("ingestion completed successfully")

	case "api":
		// API mode: start the HTTP server
		logger.L().Info().Msg("starting API server")

		if err := migrate(ctx); err != nil {
			logger.L().Fatal().Err(err).Msg("migration failed")
		}

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}

// migrate brings the schema up to date on a short-lived connection.
func migrate(ctx context.Context) error {
	conn, err := app.InitPostgres(config.AppConfig)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	return db.Migrate(ctx, conn)
}
