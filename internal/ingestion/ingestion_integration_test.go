//go:build integration
// +build integration

package ingestion

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/guttosm/spimexpulse/db"
	"github.com/guttosm/spimexpulse/internal/domain/models"
	"github.com/guttosm/spimexpulse/internal/storage"
)

// startPostgres spins up a Postgres container and returns a DSN and terminate func.
func startPostgres(t *testing.T) (dsn string, terminate func()) {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "spimex",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "postgres", func(host string, port nat.Port) string {
			return fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=spimex sslmode=disable", host, port.Port())
		}).WithStartupTimeout(60 * time.Second),
	}

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container start: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", "postgres", "postgres", host, port.Port(), "spimex")
	terminate = func() { _ = container.Terminate(context.Background()) }
	return dsn, terminate
}

func openDB(t *testing.T, dsn string) *sql.DB {
	t.Helper()
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	return sqlDB
}

func countRows(t *testing.T, sqlDB *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := sqlDB.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestOrchestrator_Integration_OfflineIngest(t *testing.T) {
	dsn, terminate := startPostgres(t)
	defer terminate()
	sqlDB := openDB(t, dsn)
	defer sqlDB.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx, sqlDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	dir := t.TempDir()
	files := map[string][]byte{
		"oil_xls_20240501162000.xls": reportWorkbook(t, "A100B23Z", "A592UFM060F"),
		"oil_xls_20240502162000.xls": reportWorkbook(t, "A100B23Z"),
		"oil_xls_20240503162000.xls": workbook(t, [][]interface{}{{"Единица измерения: Кубический метр"}, {"x"}}),
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), body, 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	repo := storage.NewTradingResultsRepository(sqlDB)
	cfg := offlineConfig(dir, true)

	report, err := NewOrchestrator(cfg, nil, nil, repo).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.FilesProcessed != 2 || report.FilesWithoutTable != 1 || report.RowsPersisted != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if n := countRows(t, sqlDB, `SELECT COUNT(*) FROM spimex_trading_results`); n != 3 {
		t.Fatalf("stored rows=%d, want 3", n)
	}
	if n := countRows(t, sqlDB, `SELECT COUNT(*) FROM ingestion_log`); n != 3 {
		t.Fatalf("logged files=%d, want 3", n)
	}

	dates, err := repo.LastTradingDates(ctx, 10)
	if err != nil {
		t.Fatalf("LastTradingDates: %v", err)
	}
	if len(dates) != 2 || dates[0].Format("2006-01-02") != "2024-05-02" {
		t.Fatalf("dates=%v", dates)
	}

	got, err := repo.TradingResults(ctx, models.TradingFilter{DeliveryBasisID: "UFM"}, 10)
	if err != nil {
		t.Fatalf("TradingResults: %v", err)
	}
	if len(got) != 1 || got[0].ExchangeProductID != "A592UFM060F" || got[0].Count != 3 || got[0].Total != "3798000" {
		t.Fatalf("unexpected results: %+v", got)
	}

	// incremental run skips everything already logged
	cfg.Reset = false
	report, err = NewOrchestrator(cfg, nil, nil, repo).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.FilesSkipped != 3 || report.RowsPersisted != 0 {
		t.Fatalf("incremental run: %+v", report)
	}

	// forced run replaces rows instead of duplicating them
	cfg.Force = true
	if _, err := NewOrchestrator(cfg, nil, nil, repo).Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := countRows(t, sqlDB, `SELECT COUNT(*) FROM spimex_trading_results`); n != 3 {
		t.Fatalf("stored rows after force=%d, want 3", n)
	}
}
