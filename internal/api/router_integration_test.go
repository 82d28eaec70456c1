//go:build integration
// +build integration

package api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/guttosm/spimexpulse/config"
	"github.com/guttosm/spimexpulse/db"
	"github.com/guttosm/spimexpulse/internal/app"
	"github.com/guttosm/spimexpulse/internal/domain/models"
	"github.com/guttosm/spimexpulse/internal/storage"
)

func startPG(t *testing.T) (dsn string, host string, port nat.Port, terminate func()) {
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
		WaitingFor: wait.ForSQL("5432/tcp", "postgres", func(h string, p nat.Port) string {
			return fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=spimex sslmode=disable", h, p.Port())
		}).WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	h, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", "postgres", "postgres", h, mp.Port(), "spimex")
	terminate = func() { _ = c.Terminate(context.Background()) }
	return dsn, h, mp, terminate
}

func openAndMigrate(t *testing.T, dsn string) *sql.DB {
	t.Helper()
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := conn.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedForE2E(t *testing.T, conn *sql.DB, days ...time.Time) {
	t.Helper()
	repo := storage.NewTradingResultsRepository(conn)
	for i, d := range days {
		results := []models.TradingResult{
			{ExchangeProductID: "A592UFM060F", ExchangeProductName: "Бензин", OilID: "A592", DeliveryBasisID: "UFM", DeliveryBasisName: "ст. Уфа", DeliveryTypeID: "F", Volume: "60", Total: "3798000", Count: 1, Date: d},
			{ExchangeProductID: "A100B23Z", ExchangeProductName: "Дизель", OilID: "A100", DeliveryBasisID: "B23", DeliveryBasisName: "ст. Б", DeliveryTypeID: "Z", Volume: "120", Total: "1234.5", Count: 2, Date: d},
		}
		file := models.IngestedFile{Filename: fmt.Sprintf("file-%d.xls", i), FileDate: d, RowCount: len(results)}
		if err := repo.SaveFile(context.Background(), file, results); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func get(t *testing.T, router http.Handler, url string, dest any) int {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	if dest != nil && w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), dest); err != nil {
			t.Fatalf("json: %v body=%s", err, w.Body.String())
		}
	}
	return w.Code
}

func TestAPI_E2E_Tradings(t *testing.T) {
	dsn, host, port, term := startPG(t)
	defer term()
	conn := openAndMigrate(t, dsn)
	defer conn.Close()

	may1 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	may2 := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	seedForE2E(t, conn, may1, may2)

	// Point application config to containerized DB
	old := config.AppConfig
	t.Cleanup(func() { config.AppConfig = old })
	config.AppConfig.Postgres.Host = host
	p, _ := nat.ParsePort(port.Port())
	config.AppConfig.Postgres.Port = int(p)
	config.AppConfig.Postgres.User = "postgres"
	config.AppConfig.Postgres.Password = "postgres"
	config.AppConfig.Postgres.DBName = "spimex"
	config.AppConfig.Postgres.SSLMode = "disable"
	config.AppConfig.Cache = config.CacheConfig{ResetAt: "14:11"}

	router, cleanup, err := app.InitializeApp()
	if err != nil {
		t.Fatalf("init app: %v", err)
	}
	defer cleanup()

	var dates []string
	if code := get(t, router, "/api/v1/tradings/last-trading-dates?limit=1", &dates); code != http.StatusOK {
		t.Fatalf("last-trading-dates status=%d", code)
	}
	if len(dates) != 1 || dates[0] != "2024-05-02" {
		t.Fatalf("dates=%v", dates)
	}

	var rows []struct {
		OilID string `json:"oil_id"`
		Date  string `json:"date"`
	}
	code := get(t, router, "/api/v1/tradings/dynamics?start_date=2024-05-01&end_date=2024-05-02&oil_id=a592", &rows)
	if code != http.StatusOK {
		t.Fatalf("dynamics status=%d", code)
	}
	if len(rows) != 2 || rows[0].Date != "2024-05-01" || rows[0].OilID != "A592" {
		t.Fatalf("dynamics=%+v", rows)
	}

	rows = nil
	if code := get(t, router, "/api/v1/tradings/trading-results?delivery_type_id=Z&limit=5", &rows); code != http.StatusOK {
		t.Fatalf("trading-results status=%d", code)
	}
	if len(rows) != 2 || rows[0].Date != "2024-05-02" {
		t.Fatalf("trading-results=%+v", rows)
	}

	if code := get(t, router, "/api/v1/tradings/dynamics?start_date=2024-05-02&end_date=2024-05-01", nil); code != http.StatusBadRequest {
		t.Fatalf("inverted range status=%d", code)
	}
}
