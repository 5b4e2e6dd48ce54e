package metrics

import "github.com/prometheus/client_golang/prometheus"

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace sets the metric namespace.
func WithNamespace(namespace string) Option {
	return func(m *Manager) { m.namespace = namespace }
}

// WithSubsystem sets the metric subsystem.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) { m.subsystem = subsystem }
}

// WithHistogramBuckets overrides the latency histogram buckets (milliseconds).
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithPrometheusRegistry registers collectors on the given registerer.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}
