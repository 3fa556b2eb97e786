/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsLabelMethod       = "method"
	metricsLabelRoutePattern = "route_pattern"
	metricsLabelStatusCode   = "status_code"
)

const contentTypeEventStream = "text/event-stream"

// DefaultHTTPRequestDurationBuckets are buckets for durations of ordinary (short) requests.
var DefaultHTTPRequestDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// DefaultHTTPStreamDurationBuckets are buckets for lifetimes of event streams.
// A stream ends only when the client goes away or the server stops.
var DefaultHTTPStreamDurationBuckets = []float64{1, 10, 60, 300, 900, 3600, 4 * 3600, 24 * 3600}

// HTTPRequestMetricsCollectorOpts represents an options for HTTPRequestMetricsCollector.
type HTTPRequestMetricsCollectorOpts struct {
	// Namespace is prepended to all metric names.
	Namespace string

	DurationBuckets       []float64
	StreamDurationBuckets []float64

	ConstLabels prometheus.Labels
}

// HTTPRequestMetricsCollector holds metrics of the status server's HTTP requests.
//
// Responses with the text/event-stream content type (the busy events endpoint) are long-lived:
// they are counted in StreamDurations, never in Durations, so they don't skew request latencies.
type HTTPRequestMetricsCollector struct {
	Durations       *prometheus.HistogramVec // method, route_pattern, status_code
	StreamDurations *prometheus.HistogramVec // route_pattern
	InFlight        *prometheus.GaugeVec     // method
}

// NewHTTPRequestMetricsCollector creates a collector with default buckets and no namespace.
func NewHTTPRequestMetricsCollector() *HTTPRequestMetricsCollector {
	return NewHTTPRequestMetricsCollectorWithOpts(HTTPRequestMetricsCollectorOpts{})
}

// NewHTTPRequestMetricsCollectorWithOpts is a more configurable version of NewHTTPRequestMetricsCollector.
func NewHTTPRequestMetricsCollectorWithOpts(opts HTTPRequestMetricsCollectorOpts) *HTTPRequestMetricsCollector {
	if opts.DurationBuckets == nil {
		opts.DurationBuckets = DefaultHTTPRequestDurationBuckets
	}
	if opts.StreamDurationBuckets == nil {
		opts.StreamDurationBuckets = DefaultHTTPStreamDurationBuckets
	}
	return &HTTPRequestMetricsCollector{
		Durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "http_request_duration_seconds",
			Help:        "Durations of served HTTP requests, event streams excluded.",
			Buckets:     opts.DurationBuckets,
			ConstLabels: opts.ConstLabels,
		}, []string{metricsLabelMethod, metricsLabelRoutePattern, metricsLabelStatusCode}),
		StreamDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "http_stream_duration_seconds",
			Help:        "Lifetimes of long-lived event streams.",
			Buckets:     opts.StreamDurationBuckets,
			ConstLabels: opts.ConstLabels,
		}, []string{metricsLabelRoutePattern}),
		InFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests being served, open event streams included.",
			ConstLabels: opts.ConstLabels,
		}, []string{metricsLabelMethod}),
	}
}

// MustRegister registers all metrics in the default Prometheus registry and panics on error.
func (c *HTTPRequestMetricsCollector) MustRegister() {
	prometheus.MustRegister(c.Durations, c.StreamDurations, c.InFlight)
}

// Unregister removes all metrics from the default Prometheus registry.
func (c *HTTPRequestMetricsCollector) Unregister() {
	prometheus.Unregister(c.InFlight)
	prometheus.Unregister(c.StreamDurations)
	prometheus.Unregister(c.Durations)
}

func (c *HTTPRequestMetricsCollector) observe(method, routePattern string, status int, hdr http.Header, elapsed time.Duration) {
	if isEventStream(hdr) {
		c.StreamDurations.WithLabelValues(routePattern).Observe(elapsed.Seconds())
		return
	}
	c.Durations.WithLabelValues(method, routePattern, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func isEventStream(hdr http.Header) bool {
	mediaType, _, err := mime.ParseMediaType(hdr.Get("Content-Type"))
	return err == nil && mediaType == contentTypeEventStream
}

// HTTPRequestMetricsOpts represents an options for HTTPRequestMetrics middleware.
type HTTPRequestMetricsOpts struct {
	// ExcludedEndpoints are URL paths that are not measured at all.
	ExcludedEndpoints []string
}

type httpRequestMetricsHandler struct {
	next            http.Handler
	collector       *HTTPRequestMetricsCollector
	getRoutePattern RoutePatternGetterFunc
	excluded        map[string]struct{}
}

// HTTPRequestMetrics is a middleware that measures incoming HTTP requests.
// getRoutePattern may be nil, the chi route pattern is used then.
func HTTPRequestMetrics(
	collector *HTTPRequestMetricsCollector, getRoutePattern RoutePatternGetterFunc,
) func(next http.Handler) http.Handler {
	return HTTPRequestMetricsWithOpts(collector, getRoutePattern, HTTPRequestMetricsOpts{})
}

// HTTPRequestMetricsWithOpts is a more configurable version of HTTPRequestMetrics middleware.
func HTTPRequestMetricsWithOpts(
	collector *HTTPRequestMetricsCollector,
	getRoutePattern RoutePatternGetterFunc,
	opts HTTPRequestMetricsOpts,
) func(next http.Handler) http.Handler {
	if getRoutePattern == nil {
		getRoutePattern = GetChiRoutePattern
	}
	excluded := make(map[string]struct{}, len(opts.ExcludedEndpoints))
	for _, endpoint := range opts.ExcludedEndpoints {
		excluded[endpoint] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return &httpRequestMetricsHandler{next: next, collector: collector, getRoutePattern: getRoutePattern, excluded: excluded}
	}
}

func (h *httpRequestMetricsHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if _, ok := h.excluded[r.URL.Path]; ok {
		h.next.ServeHTTP(rw, r)
		return
	}

	startTime := GetRequestStartTimeFromContext(r.Context())
	if startTime.IsZero() {
		startTime = time.Now()
		r = r.WithContext(NewContextWithRequestStartTime(r.Context(), startTime))
	}

	inFlight := h.collector.InFlight.WithLabelValues(r.Method)
	inFlight.Inc()
	defer inFlight.Dec()

	wrw := WrapResponseWriterIfNeeded(rw, r.ProtoMajor)
	defer func() {
		// The route pattern is known only after chi has routed the request.
		routePattern := h.getRoutePattern(r)
		if p := recover(); p != nil {
			if p != http.ErrAbortHandler {
				h.collector.observe(r.Method, routePattern, http.StatusInternalServerError, nil, time.Since(startTime))
			}
			panic(p)
		}
		h.collector.observe(r.Method, routePattern, wrappedStatus(wrw), wrw.Header(), time.Since(startTime))
	}()

	h.next.ServeHTTP(wrw, r)
}
