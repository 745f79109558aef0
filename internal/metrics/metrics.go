// Package metrics exposes Prometheus instrumentation for Quicky.
//
// All collectors live on a private registry so tests and embedded use do
// not collide with the process-wide default registry. A nil *Metrics is
// valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quicky"

// Metrics holds the Quicky collectors.
type Metrics struct {
	registry *prometheus.Registry

	reloads        prometheus.Counter
	reloadDuration prometheus.Histogram
	definitions    prometheus.Gauge
	invalid        prometheus.Counter
	publications   *prometheus.CounterVec // result: ok, error
	writes         *prometheus.CounterVec // target, result
	selections     *prometheus.CounterVec // outcome
}

// New creates and registers the Quicky collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		reloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "definitions",
			Name:      "reloads_total",
			Help:      "Total number of definition recomputes",
		}),

		reloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "definitions",
			Name:      "reload_duration_seconds",
			Help:      "Definition recompute duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),

		definitions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "definitions",
			Name:      "active",
			Help:      "Number of definitions in the current set",
		}),

		invalid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "definitions",
			Name:      "invalid_total",
			Help:      "Total number of rejected host definitions",
		}),

		publications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "publications_total",
			Help:      "Total number of signal publications",
		}, []string{"result"}),

		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settings",
			Name:      "writes_total",
			Help:      "Total number of setting writes",
		}, []string{"target", "result"}),

		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selection",
			Name:      "flows_total",
			Help:      "Total number of selection flows by outcome",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.reloads,
		m.reloadDuration,
		m.definitions,
		m.invalid,
		m.publications,
		m.writes,
		m.selections,
	)

	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the collectors.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordReload records one definition recompute.
func (m *Metrics) RecordReload(duration time.Duration, active, invalid int) {
	if m == nil {
		return
	}
	m.reloads.Inc()
	m.reloadDuration.Observe(duration.Seconds())
	m.definitions.Set(float64(active))
	m.invalid.Add(float64(invalid))
}

// RecordPublication records one signal publication.
func (m *Metrics) RecordPublication(err error) {
	if m == nil {
		return
	}
	m.publications.WithLabelValues(result(err)).Inc()
}

// RecordWrite records one setting write to target.
func (m *Metrics) RecordWrite(target string, err error) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(target, result(err)).Inc()
}

// RecordSelection records the outcome of one selection flow.
func (m *Metrics) RecordSelection(outcome string) {
	if m == nil {
		return
	}
	m.selections.WithLabelValues(outcome).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
