package authority

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/compose-network/beaconroots/metrics"
)

// Metrics holds all write authority metrics
type Metrics struct {
	registry *metrics.ComponentRegistry

	HeadsAppliedTotal  prometheus.Counter
	HeadsRejectedTotal *prometheus.CounterVec
}

// NewMetrics creates authority metrics
func NewMetrics() *Metrics {
	reg := metrics.NewComponentRegistry("beaconroots", "authority")

	return &Metrics{
		registry: reg,

		HeadsAppliedTotal: reg.NewCounter(prometheus.CounterOpts{
			Name: "heads_applied_total",
			Help: "Total number of head announcements applied to the store",
		}),

		HeadsRejectedTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "heads_rejected_total",
			Help: "Total number of rejected head announcements by reason",
		}, []string{"reason"}),
	}
}

// RecordApplied records a successfully applied head
func (m *Metrics) RecordApplied() {
	m.HeadsAppliedTotal.Inc()
}

// RecordRejected records a rejected head
func (m *Metrics) RecordRejected(reason string) {
	m.HeadsRejectedTotal.WithLabelValues(reason).Inc()
}
