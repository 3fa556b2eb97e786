/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RoutePatternGetterFunc is a function for getting route pattern from the request.
type RoutePatternGetterFunc func(r *http.Request) string

// GetChiRoutePattern returns the route pattern matched by chi router or an empty string.
func GetChiRoutePattern(r *http.Request) string {
	chiCtx := chi.RouteContext(r.Context())
	if chiCtx == nil {
		return ""
	}
	return chiCtx.RoutePattern()
}

// WrapResponseWriterIfNeeded wraps an http.ResponseWriter (if it is not already wrapped),
// returning a proxy that records the status code and the number of written bytes.
// The proxy keeps http.Flusher support, so it may be used for streaming responses.
func WrapResponseWriterIfNeeded(rw http.ResponseWriter, protoMajor int) chimiddleware.WrapResponseWriter {
	if wrw, ok := rw.(chimiddleware.WrapResponseWriter); ok {
		return wrw
	}
	return chimiddleware.NewWrapResponseWriter(rw, protoMajor)
}

// wrappedStatus returns the status written to the wrapped writer. 200 is implied when nothing has been written.
func wrappedStatus(wrw chimiddleware.WrapResponseWriter) int {
	if status := wrw.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}
