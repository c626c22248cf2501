// Package metrics holds the Prometheus counters oqsync updates while syncing.
// A CLI run has no scrape endpoint, so the registry can be written to a file
// for the node exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for oqsync. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	LinesSynced  *prometheus.CounterVec
	CascadeLines *prometheus.CounterVec
	StoreErrors  *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		LinesSynced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oqsync_lines_synced_total",
				Help: "Document lines processed by sync, by action",
			},
			[]string{"action"},
		),
		CascadeLines: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oqsync_cascade_lines_total",
				Help: "Lines rewritten by a status cascade, by direction",
			},
			[]string{"direction"},
		),
		StoreErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oqsync_store_errors_total",
				Help: "Failed task store calls, by operation",
			},
			[]string{"op"},
		),
	}
}

// RecordLine counts one synced line.
func (m *Metrics) RecordLine(action string) {
	if m == nil {
		return
	}
	m.LinesSynced.WithLabelValues(action).Inc()
}

// RecordCascade counts lines rewritten by a cascade.
func (m *Metrics) RecordCascade(direction string, lines int) {
	if m == nil || lines <= 0 {
		return
	}
	m.CascadeLines.WithLabelValues(direction).Add(float64(lines))
}

// RecordStoreError counts a failed store call.
func (m *Metrics) RecordStoreError(op string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(op).Inc()
}

// WriteTextfile writes the registry in the text exposition format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to '%s': %w", path, err)
	}
	return nil
}
