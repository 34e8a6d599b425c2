// Package metrics exposes Prometheus instrumentation for workflow runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks workflow run outcomes and per-stage latency. A nil
// *Metrics is safe to use; all methods become no-ops.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	runsInFlight  prometheus.Gauge
	stageDuration *prometheus.HistogramVec
	uploadsTotal  prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autoclose",
			Subsystem: "workflow",
			Name:      "runs_total",
			Help:      "Total workflow runs by final status.",
		},
		[]string{"status"},
	)
	runsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "autoclose",
			Subsystem: "workflow",
			Name:      "runs_in_flight",
			Help:      "Number of workflow runs currently executing.",
		},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "autoclose",
			Subsystem: "workflow",
			Name:      "stage_duration_seconds",
			Help:      "Stage execution duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)
	uploadsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "autoclose",
			Subsystem: "api",
			Name:      "uploads_total",
			Help:      "Total documents accepted through the upload endpoint.",
		},
	)

	registry.MustRegister(runsTotal, runsInFlight, stageDuration, uploadsTotal)

	return &Metrics{
		registry:      registry,
		runsTotal:     runsTotal,
		runsInFlight:  runsInFlight,
		stageDuration: stageDuration,
		uploadsTotal:  uploadsTotal,
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RunStarted marks a workflow run as in flight.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.runsInFlight.Inc()
}

// RunFinished records the final status of a run and clears its in-flight mark.
func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.runsInFlight.Dec()
	m.runsTotal.WithLabelValues(status).Inc()
}

// ObserveStage records the duration of a single stage execution.
func (m *Metrics) ObserveStage(stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// UploadAccepted counts a document accepted for processing.
func (m *Metrics) UploadAccepted() {
	if m == nil {
		return
	}
	m.uploadsTotal.Inc()
}
