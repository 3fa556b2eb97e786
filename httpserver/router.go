/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acronis/go-busy/httpserver/middleware"
	"github.com/acronis/go-busy/log"
	"github.com/acronis/go-busy/restapi"
)

// systemEndpoints are served without request metrics.
var systemEndpoints = []string{"/metrics", "/healthz"}

// newRouter builds the status server's handler:
//
//	/metrics, /healthz
//	/api/{serviceName}/v1/status, /api/{serviceName}/v1/events   (BusyAPI)
//	/api/{serviceName}/v{N}/...                                  (Opts.APIRoutes)
//
// Unknown routes and methods get JSON errors in the ErrorDomain.
func newRouter(cfg *Config, logger log.FieldLogger, opts *Opts, reqMetrics *middleware.HTTPRequestMetricsCollector) chi.Router {
	router := chi.NewRouter()

	router.Use(
		markRequestStart,
		middleware.RequestID(),
		middleware.LoggingWithOpts(logger, middleware.LoggingOpts{
			RequestStart:      cfg.Log.RequestStart,
			ExcludedEndpoints: cfg.Log.ExcludedEndpoints,
		}),
		middleware.Recovery(opts.ErrorDomain),
		middleware.HTTPRequestMetricsWithOpts(reqMetrics, opts.HTTPRequestMetrics.GetRoutePattern,
			middleware.HTTPRequestMetricsOpts{ExcludedEndpoints: systemEndpoints}),
	)
	router.Use(opts.RootMiddlewares...)

	metricsHandler := opts.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	router.Method(http.MethodGet, "/metrics", metricsHandler)
	router.Method(http.MethodGet, "/healthz", NewHealthCheckHandler(opts.HealthCheck))

	if routes := opts.apiRoutes(); len(routes) != 0 {
		serviceName := opts.ServiceNameInURL
		if serviceName == "" {
			serviceName = DefaultServiceNameInURL
		}
		router.Route("/api/"+serviceName, func(api chi.Router) {
			for ver, route := range routes {
				api.Route(fmt.Sprintf("/v%d", ver), route)
			}
		})
	}

	respondErr := func(status int, code string) http.HandlerFunc {
		return func(rw http.ResponseWriter, r *http.Request) {
			reqLogger := middleware.GetLoggerFromContext(r.Context())
			if reqLogger == nil {
				reqLogger = logger
			}
			restapi.RespondError(rw, status, restapi.NewError(opts.ErrorDomain, code, ""), reqLogger)
		}
	}
	router.NotFound(respondErr(http.StatusNotFound, restapi.ErrCodeNotFound))
	router.MethodNotAllowed(respondErr(http.StatusMethodNotAllowed, restapi.ErrCodeMethodNotAllowed))

	return router
}

// markRequestStart stores the accept time, so the access log and metrics measure the same interval.
func markRequestStart(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(rw, r.WithContext(middleware.NewContextWithRequestStartTime(r.Context(), time.Now())))
	})
}
