/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMetric gathers the single sample of the collector and compares the extracted value with want.
// A labeled child of a vector (e.g. HistogramVec.WithLabelValues) is a single-sample collector too.
func assertMetric(t assert.TestingT, c prometheus.Collector, want float64, value func(*dto.Metric) float64) bool {
	helper(t)
	reg := prometheus.NewPedanticRegistry()
	if !assert.NoError(t, reg.Register(c)) {
		return false
	}
	families, err := reg.Gather()
	if !assert.NoError(t, err) || !assert.Len(t, families, 1) || !assert.Len(t, families[0].GetMetric(), 1) {
		return false
	}
	return assert.Equal(t, want, value(families[0].GetMetric()[0]))
}

func requireOK(t require.TestingT, ok bool) {
	if !ok {
		t.FailNow()
	}
}

func histogramSamples(m *dto.Metric) float64 { return float64(m.GetHistogram().GetSampleCount()) }

func counterValue(m *dto.Metric) float64 { return m.GetCounter().GetValue() }

func gaugeValue(m *dto.Metric) float64 { return m.GetGauge().GetValue() }

// AssertSamplesCountInHistogram asserts the number of observations in the histogram.
func AssertSamplesCountInHistogram(t assert.TestingT, hist prometheus.Histogram, wantSamplesCount int) bool {
	helper(t)
	return assertMetric(t, hist, float64(wantSamplesCount), histogramSamples)
}

// RequireSamplesCountInHistogram is AssertSamplesCountInHistogram that stops the test on failure.
func RequireSamplesCountInHistogram(t require.TestingT, hist prometheus.Histogram, wantSamplesCount int) {
	helper(t)
	requireOK(t, AssertSamplesCountInHistogram(t, hist, wantSamplesCount))
}

// AssertSamplesCountInCounter asserts the counter value.
func AssertSamplesCountInCounter(t assert.TestingT, counter prometheus.Counter, wantCount int) bool {
	helper(t)
	return assertMetric(t, counter, float64(wantCount), counterValue)
}

// RequireSamplesCountInCounter is AssertSamplesCountInCounter that stops the test on failure.
func RequireSamplesCountInCounter(t require.TestingT, counter prometheus.Counter, wantCount int) {
	helper(t)
	requireOK(t, AssertSamplesCountInCounter(t, counter, wantCount))
}

// AssertGaugeValue asserts the gauge value.
func AssertGaugeValue(t assert.TestingT, gauge prometheus.Gauge, wantValue float64) bool {
	helper(t)
	return assertMetric(t, gauge, wantValue, gaugeValue)
}

// RequireGaugeValue is AssertGaugeValue that stops the test on failure.
func RequireGaugeValue(t require.TestingT, gauge prometheus.Gauge, wantValue float64) {
	helper(t)
	requireOK(t, AssertGaugeValue(t, gauge, wantValue))
}
