// Package metrics provides Prometheus instrumentation for the verification
// engine. All methods are nil-safe so components can run uninstrumented.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	// Ledger aggregation latency, end to end across all collectors.
	AggregateLatency prometheus.Histogram

	// Collector outcomes by source and result ("ok", "failed", "timeout").
	CollectorOutcome *prometheus.CounterVec

	// Photo resolution outcomes ("matched", "unresolved", "override").
	ResolutionOutcome *prometheus.CounterVec

	// Optimistic-concurrency write conflicts by record kind.
	WriteConflicts *prometheus.CounterVec
}

// New creates a Metrics instance registered on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates a Metrics instance registered on reg. Tests pass a
// throwaway registry to avoid duplicate-registration panics.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AggregateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fieldops_aggregate_duration_seconds",
			Help:    "Duration of full ledger aggregation across all collectors",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		CollectorOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldops_collector_outcomes_total",
			Help: "Collector fetch outcomes by source and result",
		}, []string{"source", "result"}),
		ResolutionOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldops_resolution_outcomes_total",
			Help: "Photo space-resolution outcomes",
		}, []string{"outcome"}),
		WriteConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldops_write_conflicts_total",
			Help: "Optimistic-concurrency conflicts by record kind",
		}, []string{"kind"}),
	}
}

// ObserveAggregateLatency records the duration of one aggregation call.
func (m *Metrics) ObserveAggregateLatency(d time.Duration) {
	if m != nil {
		m.AggregateLatency.Observe(d.Seconds())
	}
}

// IncCollectorOutcome records one collector fetch result.
func (m *Metrics) IncCollectorOutcome(source, result string) {
	if m != nil {
		m.CollectorOutcome.WithLabelValues(source, result).Inc()
	}
}

// IncResolutionOutcome records one photo resolution result.
func (m *Metrics) IncResolutionOutcome(outcome string) {
	if m != nil {
		m.ResolutionOutcome.WithLabelValues(outcome).Inc()
	}
}

// IncWriteConflict records a rejected stale write.
func (m *Metrics) IncWriteConflict(kind string) {
	if m != nil {
		m.WriteConflicts.WithLabelValues(kind).Inc()
	}
}
