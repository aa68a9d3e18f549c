package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	return rec.Body.String()
}

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveUpload(false, 100)
	m.ObserveUpload(true, 50)
	m.ObserveUpload(true, 50)
	m.ObserveDownload(10)
	m.ObserveFileDelete(true)
	m.ObserveFileDelete(false)
	m.ObserveDirectoryMove(3)

	body := scrape(t, m)
	for _, want := range []string{
		`kb_uploads_total{result="stored"} 1`,
		`kb_uploads_total{result="deduplicated"} 2`,
		"kb_upload_bytes_total 200",
		"kb_downloads_total 1",
		"kb_download_bytes_total 10",
		`kb_file_deletes_total{blob_removed="true"} 1`,
		`kb_file_deletes_total{blob_removed="false"} 1`,
		"kb_directory_path_rewrites_total 3",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveUpload(true, 1)
	m.ObserveDownload(1)
	m.ObserveFileDelete(true)
	m.ObserveDirectoryMove(1)
	m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/files/{id}", http.StatusOK, 20*time.Millisecond)

	body := scrape(t, m)
	for _, want := range []string{
		`kb_http_requests_total{method="GET",route="/api/files/{id}",status="200"} 1`,
		"kb_http_request_duration_seconds_bucket",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
