// Package metrics exposes kb counters in the Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hongsenwang01/knowledge-base/internal/kb"
)

// Metrics implements kb.Metrics and records HTTP traffic. Each instance owns
// its registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	uploads       *prometheus.CounterVec
	uploadBytes   prometheus.Counter
	downloads     prometheus.Counter
	downloadBytes prometheus.Counter
	fileDeletes   *prometheus.CounterVec
	pathRewrites  prometheus.Counter

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var _ kb.Metrics = (*Metrics)(nil)

// New creates a Metrics with Go runtime and process collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry: reg,
		uploads: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kb_uploads_total",
				Help: "Total number of accepted uploads by outcome",
			},
			[]string{"result"}, // "stored", "deduplicated"
		),
		uploadBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "kb_upload_bytes_total",
			Help: "Total bytes received in accepted uploads",
		}),
		downloads: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "kb_downloads_total",
			Help: "Total number of downloads served",
		}),
		downloadBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "kb_download_bytes_total",
			Help: "Total size of files handed out for download",
		}),
		fileDeletes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kb_file_deletes_total",
				Help: "Total number of file deletes by whether the blob was removed",
			},
			[]string{"blob_removed"},
		),
		pathRewrites: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "kb_directory_path_rewrites_total",
			Help: "Total number of directory paths rewritten by moves and renames",
		}),
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kb_http_requests_total",
				Help: "Total number of HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kb_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

func (m *Metrics) ObserveUpload(deduplicated bool, bytes int64) {
	if m == nil {
		return
	}
	result := "stored"
	if deduplicated {
		result = "deduplicated"
	}
	m.uploads.WithLabelValues(result).Inc()
	m.uploadBytes.Add(float64(bytes))
}

func (m *Metrics) ObserveDownload(bytes int64) {
	if m == nil {
		return
	}
	m.downloads.Inc()
	m.downloadBytes.Add(float64(bytes))
}

func (m *Metrics) ObserveFileDelete(blobRemoved bool) {
	if m == nil {
		return
	}
	m.fileDeletes.WithLabelValues(strconv.FormatBool(blobRemoved)).Inc()
}

func (m *Metrics) ObserveDirectoryMove(rewritten int) {
	if m == nil {
		return
	}
	m.pathRewrites.Add(float64(rewritten))
}

// ObserveRequest records one finished HTTP request. route is the matched
// route pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
