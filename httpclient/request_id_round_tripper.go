/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"net/http"

	"github.com/acronis/go-busy/httpserver/middleware"
)

// RequestIDRoundTripperOpts represents an options for RequestIDRoundTripper.
type RequestIDRoundTripperOpts struct {
	// RequestIDProvider returns the id to send. middleware.GetRequestIDFromContext if nil.
	RequestIDProvider func(ctx context.Context) string
}

// RequestIDRoundTripper propagates the request id via X-Request-ID header.
type RequestIDRoundTripper struct {
	Delegate http.RoundTripper
	Opts     RequestIDRoundTripperOpts
}

// NewRequestIDRoundTripper creates a RequestIDRoundTripper taking the id from the request context.
func NewRequestIDRoundTripper(delegate http.RoundTripper) http.RoundTripper {
	return NewRequestIDRoundTripperWithOpts(delegate, RequestIDRoundTripperOpts{})
}

// NewRequestIDRoundTripperWithOpts is a more configurable version of NewRequestIDRoundTripper.
func NewRequestIDRoundTripperWithOpts(delegate http.RoundTripper, opts RequestIDRoundTripperOpts) http.RoundTripper {
	if opts.RequestIDProvider == nil {
		opts.RequestIDProvider = middleware.GetRequestIDFromContext
	}
	return &RequestIDRoundTripper{Delegate: delegate, Opts: opts}
}

// RoundTrip sets X-Request-ID on a copy of the request unless the caller has set it.
func (rt *RequestIDRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	requestID := rt.Opts.RequestIDProvider(r.Context())
	if r.Header.Get(middleware.HeaderRequestID) != "" || requestID == "" {
		return rt.Delegate.RoundTrip(r)
	}

	r = r.Clone(r.Context())
	r.Header.Set(middleware.HeaderRequestID, requestID)
	return rt.Delegate.RoundTrip(r)
}
