/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultRequestDurationBuckets covers outgoing requests from 10ms to 10m.
var DefaultRequestDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 150, 300, 600}

// MetricsCollector receives completed outgoing requests.
// statusCode is 0 when the request failed before a response was received.
type MetricsCollector interface {
	ObserveRequest(requestName, method string, statusCode int, elapsed time.Duration)
}

// PrometheusMetricsCollector is a MetricsCollector backed by a Prometheus histogram
// labeled with request_name, method and status_code.
type PrometheusMetricsCollector struct {
	Durations *prometheus.HistogramVec
}

var _ MetricsCollector = (*PrometheusMetricsCollector)(nil)

// NewPrometheusMetricsCollector creates a PrometheusMetricsCollector. The namespace may be empty.
func NewPrometheusMetricsCollector(namespace string) *PrometheusMetricsCollector {
	return &PrometheusMetricsCollector{
		Durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_client_request_duration_seconds",
			Help:      "Durations of outgoing HTTP requests.",
			Buckets:   DefaultRequestDurationBuckets,
		}, []string{"request_name", "method", "status_code"}),
	}
}

// MustRegister registers the histogram in the default Prometheus registry.
func (c *PrometheusMetricsCollector) MustRegister() { prometheus.MustRegister(c.Durations) }

// Unregister removes the histogram from the default Prometheus registry.
func (c *PrometheusMetricsCollector) Unregister() { prometheus.Unregister(c.Durations) }

// ObserveRequest implements MetricsCollector.
func (c *PrometheusMetricsCollector) ObserveRequest(requestName, method string, statusCode int, elapsed time.Duration) {
	c.Durations.WithLabelValues(requestName, method, strconv.Itoa(statusCode)).Observe(elapsed.Seconds())
}

// MetricsRoundTripper reports every outgoing request to a MetricsCollector.
type MetricsRoundTripper struct {
	Delegate  http.RoundTripper
	Collector MetricsCollector
}

// NewMetricsRoundTripper creates a MetricsRoundTripper.
func NewMetricsRoundTripper(delegate http.RoundTripper, collector MetricsCollector) http.RoundTripper {
	return &MetricsRoundTripper{Delegate: delegate, Collector: collector}
}

// RoundTrip implements http.RoundTripper.
func (rt *MetricsRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	startTime := time.Now()
	resp, err := rt.Delegate.RoundTrip(r)
	if rt.Collector != nil {
		statusCode := 0
		if err == nil {
			statusCode = resp.StatusCode
		}
		rt.Collector.ObserveRequest(GetRequestNameFromContext(r.Context()), r.Method, statusCode, time.Since(startTime))
	}
	return resp, err
}
