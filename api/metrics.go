package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/VanDung-dev/SpecTable-Engine/pipeline"
)

var _ pipeline.Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	// Container metrics
	ContainersOpened prometheus.Counter
	OpenFailures     prometheus.Counter
	TablesNotFound   prometheus.Counter

	// Materialization metrics
	TablesMaterialized prometheus.Counter
	MaterializeLatency prometheus.Histogram

	// Export metrics
	RowsExported  prometheus.Counter
	ExportsFailed prometheus.Counter
	ExportLatency prometheus.Histogram

	// Preview server metrics
	CacheSize       prometheus.Gauge
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
}

// NewMetrics creates a Metrics instance registered against reg with
// the given namespace. Pass prometheus.DefaultRegisterer outside tests.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ContainersOpened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "containers_opened_total",
			Help:      "Total number of containers opened successfully",
		}),
		OpenFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "open_failures_total",
			Help:      "Total number of container opens that failed",
		}),
		TablesNotFound: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tables_not_found_total",
			Help:      "Total number of lookups that located no table",
		}),

		TablesMaterialized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tables_materialized_total",
			Help:      "Total number of lazy references materialized",
		}),
		MaterializeLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "materialize_latency_seconds",
			Help:      "Payload read and decode latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),

		RowsExported: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_exported_total",
			Help:      "Total number of records written to export documents",
		}),
		ExportsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_failed_total",
			Help:      "Total number of failed export attempts",
		}),
		ExportLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_latency_seconds",
			Help:      "Export serialization latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),

		CacheSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_size",
			Help:      "Current number of cached materialized tables",
		}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preview_requests_total",
			Help:      "Total preview requests by status",
		}, []string{"status"}),
		RequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "preview_request_duration_seconds",
			Help:      "Preview request duration",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// RecordMaterialize records one materialization.
func (m *Metrics) RecordMaterialize(rows int64, duration time.Duration) {
	m.TablesMaterialized.Inc()
	m.MaterializeLatency.Observe(duration.Seconds())
}

// RecordExport records one export attempt.
func (m *Metrics) RecordExport(rows int64, success bool, duration time.Duration) {
	if success {
		m.RowsExported.Add(float64(rows))
	} else {
		m.ExportsFailed.Inc()
	}
	m.ExportLatency.Observe(duration.Seconds())
}

// ContainerOpened counts one successful container open.
func (m *Metrics) ContainerOpened() {
	m.ContainersOpened.Inc()
}

// OpenFailed counts one failed container open.
func (m *Metrics) OpenFailed() {
	m.OpenFailures.Inc()
}

// TableNotFound counts one lookup that located no table.
func (m *Metrics) TableNotFound() {
	m.TablesNotFound.Inc()
}

// TableMaterialized records one materialization observed by a pipeline.
func (m *Metrics) TableMaterialized(rows int64, took time.Duration) {
	m.RecordMaterialize(rows, took)
}

// TableExported records one successful export.
func (m *Metrics) TableExported(rows int64, took time.Duration) {
	m.RecordExport(rows, true, took)
}

// ExportFailed records one failed export.
func (m *Metrics) ExportFailed(took time.Duration) {
	m.RecordExport(0, false, took)
}

// RecordRequest records one preview request.
func (m *Metrics) RecordRequest(status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(status).Inc()
	m.RequestDuration.Observe(duration.Seconds())
}

// MetricsServer runs an HTTP server exposing /metrics.
type MetricsServer struct {
	server *http.Server
}

// NewMetricsServer creates a metrics server on the given address.
func NewMetricsServer(addr string) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return &MetricsServer{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// StartAsync starts the metrics server in a goroutine.
func (s *MetricsServer) StartAsync() {
	go func() {
		_ = s.server.ListenAndServe()
	}()
}

// Stop closes the metrics server.
func (s *MetricsServer) Stop() error {
	return s.server.Close()
}
