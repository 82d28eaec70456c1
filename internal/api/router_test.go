package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/spimexpulse/internal/domain/models"
)

func TestNewRouter_WiringAndMiddlewares(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &mockTradingService{
		dates:   []time.Time{may2},
		results: []models.TradingResult{{ID: 1, OilID: "A592", Date: may2}},
	}
	r := NewRouter(NewHandler(svc))

	cases := []struct {
		path string
		want int
	}{
		{path: "/api/v1/tradings/last-trading-dates", want: http.StatusOK},
		{path: "/api/v1/tradings/dynamics?start_date=2024-05-01&end_date=2024-05-02", want: http.StatusOK},
		{path: "/api/v1/tradings/trading-results?limit=5", want: http.StatusOK},
		{path: "/api/v1/tradings/unknown", want: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
			// Ensure RequestID middleware injected header
			if w.Header().Get("X-Request-ID") == "" {
				t.Fatalf("expected X-Request-ID header to be set")
			}
		})
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tradings/last-trading-dates", nil))
	var dates []string
	if err := json.Unmarshal(w.Body.Bytes(), &dates); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if len(dates) != 1 || dates[0] != "2024-05-02" {
		t.Fatalf("unexpected body: %v", dates)
	}
}

func TestNewRouter_ExposesMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(NewHandler(&mockTradingService{}))

	// one API call so the http counters have a sample
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/tradings/trading-results", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "spimex_http_requests_total") {
		t.Fatalf("http counters missing from /metrics")
	}
}
