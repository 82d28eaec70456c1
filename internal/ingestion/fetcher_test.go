package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

// reportServer answers every report path with its own path as body, except
// those containing one of broken which answer 500.
func reportServer(t *testing.T, broken ...string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		for _, b := range broken {
			if strings.Contains(r.URL.Path, b) {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
		}
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func reportLink(srv *httptest.Server, ts string) string {
	return srv.URL + "/upload/reports/oil_xls/oil_xls_" + ts
}

func TestFetcher_DownloadsMissingFiles(t *testing.T) {
	srv, _ := reportServer(t)
	dir := filepath.Join(t.TempDir(), "downloads")

	f, err := NewFetcher(srv.Client(), nil, dir, DefaultLayout, 2)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	links := []string{
		reportLink(srv, "20240502162000"),
		reportLink(srv, "20240501162000"),
		reportLink(srv, "20240501162000"), // repeated link
	}
	res, err := f.FetchAll(context.Background(), links)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	want := []string{"oil_xls_20240501162000.xls", "oil_xls_20240502162000.xls"}
	if !equalStrings(res.Downloaded, want) {
		t.Fatalf("downloaded=%v, want %v", res.Downloaded, want)
	}
	if res.Skipped != 1 || len(res.Failed) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	body, err := os.ReadFile(filepath.Join(dir, "oil_xls_20240501162000.xls"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(body) != "/upload/reports/oil_xls/oil_xls_20240501162000" {
		t.Fatalf("body=%q", body)
	}
}

func TestFetcher_SecondRunDownloadsNothing(t *testing.T) {
	srv, hits := reportServer(t)
	dir := t.TempDir()
	links := []string{reportLink(srv, "20240502162000"), reportLink(srv, "20240501162000")}

	first, err := NewFetcher(srv.Client(), nil, dir, DefaultLayout, 4)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	if _, err := first.FetchAll(context.Background(), links); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	before := atomic.LoadInt32(hits)

	second, err := NewFetcher(srv.Client(), nil, dir, DefaultLayout, 4)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	res, err := second.FetchAll(context.Background(), links)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(res.Downloaded) != 0 || res.Skipped != 2 {
		t.Fatalf("second run must download nothing: %+v", res)
	}
	if atomic.LoadInt32(hits) != before {
		t.Fatalf("second run issued requests")
	}
}

func TestFetcher_ExistingFileSkipped(t *testing.T) {
	srv, hits := reportServer(t)
	dir := t.TempDir()
	existing := filepath.Join(dir, "oil_xls_20240501162000.xls")
	if err := os.WriteFile(existing, []byte("local"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := NewFetcher(srv.Client(), nil, dir, DefaultLayout, 1)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	res, err := f.FetchAll(context.Background(), []string{reportLink(srv, "20240501162000")})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if res.Skipped != 1 || atomic.LoadInt32(hits) != 0 {
		t.Fatalf("existing file must not be downloaded: %+v", res)
	}
	body, _ := os.ReadFile(existing)
	if string(body) != "local" {
		t.Fatalf("existing file overwritten: %q", body)
	}
}

func TestFetcher_FailuresAreTolerated(t *testing.T) {
	srv, _ := reportServer(t, "20240502162000")
	dir := t.TempDir()

	f, err := NewFetcher(srv.Client(), nil, dir, DefaultLayout, 0)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	broken := reportLink(srv, "20240502162000")
	links := []string{broken, reportLink(srv, "20240501162000"), "https://x/y"}

	res, err := f.FetchAll(context.Background(), links)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if !equalStrings(res.Downloaded, []string{"oil_xls_20240501162000.xls"}) {
		t.Fatalf("downloaded=%v", res.Downloaded)
	}
	if !equalStrings(res.Failed, []string{broken, "https://x/y"}) {
		t.Fatalf("failed=%v", res.Failed)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".part") || e.Name() == "oil_xls_20240502162000.xls" {
			t.Fatalf("failed download left %s behind", e.Name())
		}
	}

	// the failed name is released, so a retry on the same fetcher tries again
	res, err = f.FetchAll(context.Background(), []string{broken})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if res.Skipped != 0 || len(res.Failed) != 1 {
		t.Fatalf("retry must attempt the download again: %+v", res)
	}
}

func TestFetcher_ShortLinksAndFailingDownloadsAllCounted(t *testing.T) {
	srv, _ := reportServer(t, "oil_xls_2024")
	f, err := NewFetcher(srv.Client(), nil, t.TempDir(), DefaultLayout, 4)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	var links []string
	for i := 0; i < 20; i++ {
		links = append(links, reportLink(srv, fmt.Sprintf("20240501%06d", i)))
		links = append(links, fmt.Sprintf("https://x/%d", i))
	}

	res, err := f.FetchAll(context.Background(), links)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(res.Failed) != 40 || len(res.Downloaded) != 0 {
		t.Fatalf("failed=%d downloaded=%d, want 40 and 0", len(res.Failed), len(res.Downloaded))
	}
}

func TestFetcher_CancelledContext(t *testing.T) {
	srv, _ := reportServer(t)
	f, err := NewFetcher(srv.Client(), nil, t.TempDir(), DefaultLayout, 1)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.FetchAll(ctx, []string{reportLink(srv, "20240501162000")})
	if err == nil {
		t.Fatalf("expected context error")
	}
	if len(res.Downloaded) != 0 {
		t.Fatalf("nothing should be downloaded: %+v", res)
	}
}
