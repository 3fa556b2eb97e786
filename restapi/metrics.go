/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

// responseErrors is nil until MustInitAndRegisterMetrics.
var responseErrors atomic.Pointer[prometheus.CounterVec]

// MustInitAndRegisterMetrics registers the {namespace}_restapi_response_errors counter (labels: domain, code)
// in the default registry and panics on error.
func MustInitAndRegisterMetrics(namespace string) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "restapi",
		Name:      "response_errors",
		Help:      "Number of error responses by error domain and code.",
	}, []string{"domain", "code"})
	prometheus.MustRegister(counter)
	responseErrors.Store(counter)
}

// UnregisterMetrics removes the counter registered by MustInitAndRegisterMetrics.
func UnregisterMetrics() {
	if counter := responseErrors.Swap(nil); counter != nil {
		prometheus.Unregister(counter)
	}
}

func countResponseError(err *Error) {
	if counter := responseErrors.Load(); counter != nil {
		counter.WithLabelValues(err.Domain, err.Code).Inc()
	}
}
