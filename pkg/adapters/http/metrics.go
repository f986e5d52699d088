package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics bundles the per-server Prometheus collectors. Each Server owns its
// registry so multiple handlers can coexist in one process.
type metrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	finished    *prometheus.CounterVec
	activeRuns  prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cairn",
			Name:      "transitions_total",
			Help:      "Number of node transitions served, by direction.",
		}, []string{"direction"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cairn",
			Name:      "runs_finished_total",
			Help:      "Number of runs finished, by reason.",
		}, []string{"reason"}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cairn",
			Name:      "active_runs",
			Help:      "Number of runs currently held in memory.",
		}),
	}
	m.registry.MustRegister(
		m.transitions,
		m.finished,
		m.activeRuns,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
