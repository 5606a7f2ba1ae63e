// Package metrics exports run outcomes as Prometheus series.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lightcheck"

// Metrics holds the collectors for one registry.
type Metrics struct {
	registry *prometheus.Registry

	scenarios *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	failures  *prometheus.CounterVec
	running   prometheus.Gauge
	lastRun   prometheus.Gauge
}

// New registers the lightcheck collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scenarios: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "runs_total",
			Help:      "Scenario executions by outcome.",
		}, []string{"scenario", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "duration_seconds",
			Help:      "Wall time of one scenario, login included.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 9), // 1s to ~4m
		}, []string{"scenario"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "failures_total",
			Help:      "Scenario failures by failure kind.",
		}, []string{"scenario", "kind"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_in_progress",
			Help:      "Suite runs currently executing.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last suite run finished.",
		}),
	}
	m.registry.MustRegister(m.scenarios, m.duration, m.failures, m.running, m.lastRun)
	return m
}

// RunStarted marks a suite run in progress.
func (m *Metrics) RunStarted() { m.running.Inc() }

// RunFinished clears the in-progress mark and stamps the finish time.
func (m *Metrics) RunFinished(at time.Time) {
	m.running.Dec()
	m.lastRun.Set(float64(at.Unix()))
}

// ScenarioFinished records one scenario outcome. kind is empty unless the
// scenario failed.
func (m *Metrics) ScenarioFinished(name, status, kind string, d time.Duration) {
	m.scenarios.WithLabelValues(name, status).Inc()
	m.duration.WithLabelValues(name).Observe(d.Seconds())
	if kind != "" {
		m.failures.WithLabelValues(name, kind).Inc()
	}
}

// Scenarios is the per-scenario outcome counter.
func (m *Metrics) Scenarios() *prometheus.CounterVec { return m.scenarios }

// Gatherer exposes the registry for tests and exporters.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteFile writes the registry for the node exporter textfile collector.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
