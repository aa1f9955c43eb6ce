package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Shared histogram bucket presets so components stay comparable on dashboards.
var (
	// DurationBuckets covers sub-millisecond lookups up to slow multi-second calls.
	DurationBuckets = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5, 10}

	// CountBuckets covers small cardinality counts (batch sizes, recipients).
	CountBuckets = prometheus.ExponentialBuckets(1, 2, 12)

	// SizeBuckets covers payload sizes in bytes.
	SizeBuckets = prometheus.ExponentialBuckets(32, 4, 8)
)

var (
	registryOnce sync.Once
	registry     *prometheus.Registry
)

// GetRegistry returns the process-wide registry served at /metrics.
func GetRegistry() *prometheus.Registry {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
	return registry
}

// ComponentRegistry namespaces metrics for a single component and registers
// them into the process registry.
type ComponentRegistry struct {
	namespace string
	subsystem string
}

// NewComponentRegistry creates a registry scope for a component.
func NewComponentRegistry(namespace, subsystem string) *ComponentRegistry {
	return &ComponentRegistry{namespace: namespace, subsystem: subsystem}
}

func (r *ComponentRegistry) NewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	opts.Namespace, opts.Subsystem = r.namespace, r.subsystem
	c := prometheus.NewCounter(opts)
	GetRegistry().MustRegister(c)
	return c
}

func (r *ComponentRegistry) NewCounterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	opts.Namespace, opts.Subsystem = r.namespace, r.subsystem
	c := prometheus.NewCounterVec(opts, labels)
	GetRegistry().MustRegister(c)
	return c
}

func (r *ComponentRegistry) NewGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	opts.Namespace, opts.Subsystem = r.namespace, r.subsystem
	g := prometheus.NewGauge(opts)
	GetRegistry().MustRegister(g)
	return g
}

func (r *ComponentRegistry) NewGaugeVec(opts prometheus.GaugeOpts, labels []string) *prometheus.GaugeVec {
	opts.Namespace, opts.Subsystem = r.namespace, r.subsystem
	g := prometheus.NewGaugeVec(opts, labels)
	GetRegistry().MustRegister(g)
	return g
}

func (r *ComponentRegistry) NewHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	opts.Namespace, opts.Subsystem = r.namespace, r.subsystem
	h := prometheus.NewHistogram(opts)
	GetRegistry().MustRegister(h)
	return h
}

func (r *ComponentRegistry) NewHistogramVec(opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	opts.Namespace, opts.Subsystem = r.namespace, r.subsystem
	h := prometheus.NewHistogramVec(opts, labels)
	GetRegistry().MustRegister(h)
	return h
}
