/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-busy/testutil"
)

func TestHTTPRequestMetrics(t *testing.T) {
	const statusRoute = "/api/busy/v1/status"
	getRoutePattern := func(r *http.Request) string { return r.URL.Path }

	t.Run("request durations", func(t *testing.T) {
		collector := NewHTTPRequestMetricsCollector()
		calls := 0
		h := HTTPRequestMetrics(collector, getRoutePattern)(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			calls++
			testutil.RequireGaugeValue(t, collector.InFlight.WithLabelValues(http.MethodGet), 1)
			rw.WriteHeader(http.StatusAccepted)
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, statusRoute, nil))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, statusRoute, nil))

		require.Equal(t, 2, calls)
		testutil.RequireSamplesCountInHistogram(t,
			collector.Durations.WithLabelValues(http.MethodGet, statusRoute, "202").(prometheus.Histogram), 2)
		testutil.RequireGaugeValue(t, collector.InFlight.WithLabelValues(http.MethodGet), 0)
	})

	t.Run("event stream is long-lived", func(t *testing.T) {
		const eventsRoute = "/api/busy/v1/events"
		collector := NewHTTPRequestMetricsCollector()
		h := HTTPRequestMetrics(collector, getRoutePattern)(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rw.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
			rw.WriteHeader(http.StatusOK)
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, eventsRoute, nil))

		testutil.RequireSamplesCountInHistogram(t,
			collector.StreamDurations.WithLabelValues(eventsRoute).(prometheus.Histogram), 1)
		testutil.RequireSamplesCountInHistogram(t,
			collector.Durations.WithLabelValues(http.MethodGet, eventsRoute, "200").(prometheus.Histogram), 0)
	})

	t.Run("panic is reported as internal error", func(t *testing.T) {
		collector := NewHTTPRequestMetricsCollector()
		h := HTTPRequestMetrics(collector, getRoutePattern)(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			panic("test")
		}))
		require.Panics(t, func() {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, statusRoute, nil))
		})

		testutil.RequireSamplesCountInHistogram(t,
			collector.Durations.WithLabelValues(http.MethodPost, statusRoute, "500").(prometheus.Histogram), 1)
	})

	t.Run("excluded endpoints", func(t *testing.T) {
		collector := NewHTTPRequestMetricsCollector()
		called := false
		h := HTTPRequestMetricsWithOpts(collector, getRoutePattern, HTTPRequestMetricsOpts{
			ExcludedEndpoints: []string{"/metrics"},
		})(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) { called = true }))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.True(t, called)
		testutil.RequireSamplesCountInHistogram(t,
			collector.Durations.WithLabelValues(http.MethodGet, "/metrics", "200").(prometheus.Histogram), 0)
	})
}

func TestHTTPRequestMetrics_ChiRoutePattern(t *testing.T) {
	collector := NewHTTPRequestMetricsCollector()

	router := chi.NewRouter()
	router.Use(HTTPRequestMetrics(collector, nil))
	router.Get("/requests/{name}", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusNoContent)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/requests/save", nil))

	testutil.RequireSamplesCountInHistogram(t,
		collector.Durations.WithLabelValues(http.MethodGet, "/requests/{name}", "204").(prometheus.Histogram), 1)
}
