// Package metrics counts catalog loads, job dispatches and media removals.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"backup-console/src/dispatch"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
	// resultRejected marks dispatches refused locally, before any request.
	resultRejected = "rejected"
)

type Metrics struct {
	registry *prometheus.Registry

	catalogLoads  *prometheus.CounterVec
	catalogKeys   prometheus.Gauge
	dispatches    *prometheus.CounterVec
	mediaRemovals *prometheus.CounterVec
}

// New creates the collectors and registers them in a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		catalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backup_console_key_catalog_loads_total",
			Help: "Encryption key catalog loads by result.",
		}, []string{"result"}),
		catalogKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backup_console_key_catalog_keys",
			Help: "Number of keys in the last successfully loaded catalog.",
		}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backup_console_job_dispatches_total",
			Help: "Backup job start requests by result.",
		}, []string{"result"}),
		mediaRemovals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backup_console_media_removals_total",
			Help: "Media removal requests by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(m.catalogLoads, m.catalogKeys, m.dispatches, m.mediaRemovals)
	return m
}

// Gatherer exposes the registry.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// WriteTextfile dumps all metrics in the text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// CatalogLoaded implements keys.LoadObserver.
func (m *Metrics) CatalogLoaded(n int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.catalogLoads.WithLabelValues(resultFailure).Inc()
		return
	}
	m.catalogLoads.WithLabelValues(resultSuccess).Inc()
	m.catalogKeys.Set(float64(n))
}

// DispatchFinished records one dispatch outcome. rejected marks outcomes
// that never reached the remote side.
func (m *Metrics) DispatchFinished(o dispatch.Outcome, rejected bool) {
	if m == nil {
		return
	}
	switch {
	case o.Success():
		m.dispatches.WithLabelValues(resultSuccess).Inc()
	case rejected:
		m.dispatches.WithLabelValues(resultRejected).Inc()
	default:
		m.dispatches.WithLabelValues(resultFailure).Inc()
	}
}

// MediaRemoved records one media removal request.
func (m *Metrics) MediaRemoved(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.mediaRemovals.WithLabelValues(resultFailure).Inc()
		return
	}
	m.mediaRemovals.WithLabelValues(resultSuccess).Inc()
}
