package observability

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "conference_enricher"

// Metrics stores Prometheus collectors for the enrichment engine. All methods are
// no-ops on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	itemsEnrichedTotal *prometheus.CounterVec
	itemsInflight      prometheus.Gauge
	batchesTotal       *prometheus.CounterVec
	batchesRunning     prometheus.Gauge
	repairStageTotal   *prometheus.CounterVec
	batchDuration      prometheus.Histogram
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		itemsEnrichedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_enriched_total",
				Help:      "Total number of per-item enrichment calls by status.",
			},
			[]string{"status"},
		),
		itemsInflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "items_inflight",
				Help:      "Current number of in-flight enrichment calls across all batches.",
			},
		),
		batchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_total",
				Help:      "Total number of finished batches by status.",
			},
			[]string{"status"},
		),
		batchesRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "batches_running",
				Help:      "Current number of batch pipelines executing.",
			},
		),
		repairStageTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "repair_stage_total",
				Help:      "Total number of classification responses by the repair stage that parsed them.",
			},
			[]string{"stage"},
		),
		batchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Wall time of one batch pipeline in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
			},
		),
	}

	registry.MustRegister(
		m.itemsEnrichedTotal,
		m.itemsInflight,
		m.batchesTotal,
		m.batchesRunning,
		m.repairStageTotal,
		m.batchDuration,
	)

	return m
}

// Registry exposes the private registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes the current metric values in text exposition format, for
// node_exporter's textfile collector or offline inspection.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) ItemStarted() {
	if m == nil {
		return
	}
	m.itemsInflight.Inc()
}

func (m *Metrics) ItemFinished(ok bool) {
	if m == nil {
		return
	}
	m.itemsInflight.Dec()
	m.itemsEnrichedTotal.WithLabelValues(statusLabel(ok)).Inc()
}

func (m *Metrics) BatchStarted() {
	if m == nil {
		return
	}
	m.batchesRunning.Inc()
}

// BatchFinished records a terminal batch. status is one of "ok", "empty" or
// "discarded".
func (m *Metrics) BatchFinished(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.batchesRunning.Dec()
	m.batchesTotal.WithLabelValues(normalizeLabel(status)).Inc()
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.batchDuration.Observe(seconds)
}

func (m *Metrics) RepairStage(stage string) {
	if m == nil {
		return
	}
	m.repairStageTotal.WithLabelValues(normalizeLabel(stage)).Inc()
}

func normalizeLabel(v string) string {
	normalized := strings.ToLower(strings.TrimSpace(v))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}

func statusLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
