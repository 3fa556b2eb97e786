/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/acronis/go-busy/httpserver/middleware"
	"github.com/acronis/go-busy/log"
)

// LoggingMode selects which outgoing requests are logged.
type LoggingMode string

// Logging modes.
const (
	LoggingModeNone   LoggingMode = "none"
	LoggingModeAll    LoggingMode = "all"
	LoggingModeFailed LoggingMode = "failed" // transport errors and 4xx/5xx responses
)

var loggingModes = []string{string(LoggingModeNone), string(LoggingModeAll), string(LoggingModeFailed)}

// LoggingRoundTripperOpts represents an options for LoggingRoundTripper.
type LoggingRoundTripperOpts struct {
	// LoggerProvider returns the logger for the request context.
	// middleware.GetLoggerFromContext is used if it's nil.
	LoggerProvider func(ctx context.Context) log.FieldLogger

	// Mode is LoggingModeAll if empty.
	Mode LoggingMode

	// SlowRequestThreshold skips requests completed faster than that.
	SlowRequestThreshold time.Duration
}

// LoggingRoundTripper logs outgoing requests after they complete.
type LoggingRoundTripper struct {
	Delegate http.RoundTripper
	Opts     LoggingRoundTripperOpts
}

// NewLoggingRoundTripper creates a LoggingRoundTripper that logs every request.
func NewLoggingRoundTripper(delegate http.RoundTripper) http.RoundTripper {
	return NewLoggingRoundTripperWithOpts(delegate, LoggingRoundTripperOpts{})
}

// NewLoggingRoundTripperWithOpts is a more configurable version of NewLoggingRoundTripper.
func NewLoggingRoundTripperWithOpts(delegate http.RoundTripper, opts LoggingRoundTripperOpts) http.RoundTripper {
	if opts.Mode == "" {
		opts.Mode = LoggingModeAll
	}
	if opts.LoggerProvider == nil {
		opts.LoggerProvider = middleware.GetLoggerFromContext
	}
	return &LoggingRoundTripper{Delegate: delegate, Opts: opts}
}

// RoundTrip implements http.RoundTripper.
func (rt *LoggingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if rt.Opts.Mode == LoggingModeNone {
		return rt.Delegate.RoundTrip(r)
	}

	startTime := time.Now()
	resp, err := rt.Delegate.RoundTrip(r)
	elapsed := time.Since(startTime)

	ctx := r.Context()
	logger := rt.Opts.LoggerProvider(ctx)
	if logger == nil || elapsed < rt.Opts.SlowRequestThreshold {
		return resp, err
	}
	failed := err != nil || resp.StatusCode >= http.StatusBadRequest
	if !failed && rt.Opts.Mode == LoggingModeFailed {
		return resp, err
	}

	fields := []log.Field{
		log.String("method", r.Method),
		log.String("url", r.URL.String()),
		log.String("request_name", GetRequestNameFromContext(ctx)),
		log.Int64("duration_ms", elapsed.Milliseconds()),
	}
	if requestID := middleware.GetRequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, log.String("request_id", requestID))
	}
	switch {
	case err != nil:
		logger.Error("outgoing request failed", append(fields, log.Error(err))...)
	case failed:
		logger.Warn("outgoing request completed", append(fields, log.Int("status", resp.StatusCode))...)
	default:
		logger.Info("outgoing request completed", append(fields, log.Int("status", resp.StatusCode))...)
	}
	return resp, err
}
