package ringstore

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/compose-network/beaconroots/metrics"
)

// Metrics holds all ring store metrics
type Metrics struct {
	registry *metrics.ComponentRegistry

	WritesTotal  prometheus.Counter
	LookupsTotal *prometheus.CounterVec
	HeadStep     prometheus.Gauge
	IndexEntries prometheus.Gauge
}

// NewMetrics creates ring store metrics
func NewMetrics() *Metrics {
	reg := metrics.NewComponentRegistry("beaconroots", "ringstore")

	return &Metrics{
		registry: reg,

		WritesTotal: reg.NewCounter(prometheus.CounterOpts{
			Name: "writes_total",
			Help: "Total number of recorded steps",
		}),

		LookupsTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "lookups_total",
			Help: "Total number of lookups by operation and result",
		}, []string{"operation", "result"}),

		HeadStep: reg.NewGauge(prometheus.GaugeOpts{
			Name: "head_step",
			Help: "Last recorded step (truncated to 64 bits)",
		}),

		IndexEntries: reg.NewGauge(prometheus.GaugeOpts{
			Name: "index_entries",
			Help: "Number of entries in the timestamp index",
		}),
	}
}

// RecordWrite records a successful Record call
func (m *Metrics) RecordWrite(headStep uint64, indexEntries int) {
	m.WritesTotal.Inc()
	m.HeadStep.Set(float64(headStep))
	m.IndexEntries.Set(float64(indexEntries))
}

// RecordLookup records a lookup outcome
func (m *Metrics) RecordLookup(operation, result string) {
	m.LookupsTotal.WithLabelValues(operation, result).Inc()
}
