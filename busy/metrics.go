/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package busy

import "github.com/prometheus/client_golang/prometheus"

// MetricsCollector represents a collector of metrics for busy tracking.
type MetricsCollector interface {
	// SetOutstanding sets the current number of outstanding tracked requests.
	SetOutstanding(n int)

	// IncEvents increments the number of emitted notifications of the given kind.
	IncEvents(kind EventKind)

	// IncEpisodes increments the number of busy episodes (transitions of outstanding requests from 0 to 1).
	IncEpisodes()
}

type disabledMetrics struct{}

func (disabledMetrics) SetOutstanding(int)  {}
func (disabledMetrics) IncEvents(EventKind) {}
func (disabledMetrics) IncEpisodes()        {}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels
}

// PrometheusMetrics represents Prometheus metrics for busy tracking.
type PrometheusMetrics struct {
	Outstanding   prometheus.Gauge
	EventsTotal   *prometheus.CounterVec
	EpisodesTotal prometheus.Counter
}

var _ MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	return &PrometheusMetrics{
		Outstanding: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "busy_outstanding_requests",
			Help:        "Number of tracked requests that are started but not completed yet.",
			ConstLabels: opts.ConstLabels,
		}),
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "busy_events_total",
			Help:        "Number of emitted busy notifications.",
			ConstLabels: opts.ConstLabels,
		}, []string{"event"}),
		EpisodesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "busy_episodes_total",
			Help:        "Number of busy episodes (outstanding requests went from 0 to 1).",
			ConstLabels: opts.ConstLabels,
		}),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.Outstanding, pm.EventsTotal, pm.EpisodesTotal)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.Outstanding)
	prometheus.Unregister(pm.EventsTotal)
	prometheus.Unregister(pm.EpisodesTotal)
}

// SetOutstanding implements MetricsCollector interface.
func (pm *PrometheusMetrics) SetOutstanding(n int) {
	pm.Outstanding.Set(float64(n))
}

// IncEvents implements MetricsCollector interface.
func (pm *PrometheusMetrics) IncEvents(kind EventKind) {
	pm.EventsTotal.WithLabelValues(kind.String()).Inc()
}

// IncEpisodes implements MetricsCollector interface.
func (pm *PrometheusMetrics) IncEpisodes() {
	pm.EpisodesTotal.Inc()
}
