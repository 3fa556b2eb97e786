/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"

	"github.com/rs/xid"
)

// HeaderRequestID is the header the request id is read from and echoed in.
const HeaderRequestID = "X-Request-ID"

// maxRequestIDLen bounds ids taken from clients, longer ones are replaced with generated.
const maxRequestIDLen = 128

// RequestIDOpts represents an options for RequestID middleware.
type RequestIDOpts struct {
	// GenerateID is called when the request has no usable X-Request-ID. xid is used by default.
	GenerateID func() string
}

// RequestID is a middleware that puts the request id into the request's context and the response's X-Request-ID header.
// The client's X-Request-ID is reused if present, otherwise a new xid is generated.
func RequestID() func(next http.Handler) http.Handler {
	return RequestIDWithOpts(RequestIDOpts{})
}

// RequestIDWithOpts is a more configurable version of RequestID middleware.
func RequestIDWithOpts(opts RequestIDOpts) func(next http.Handler) http.Handler {
	generate := opts.GenerateID
	if generate == nil {
		generate = func() string { return xid.New().String() }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" || len(requestID) > maxRequestIDLen {
				requestID = generate()
			}
			rw.Header().Set(HeaderRequestID, requestID)
			next.ServeHTTP(rw, r.WithContext(NewContextWithRequestID(r.Context(), requestID)))
		})
	}
}
