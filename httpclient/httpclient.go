/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/acronis/go-busy/busy"
	"github.com/acronis/go-busy/log"
)

// ErrTrackerRequired is returned when busy tracking is enabled but no tracker is provided.
var ErrTrackerRequired = errors.New("busy tracker is required when busy tracking is enabled")

// Opts provides options for NewWithOpts and MustWithOpts functions.
type Opts struct {
	// Tracker receives outgoing requests when busy tracking is enabled.
	Tracker *busy.Tracker

	// Delegate is the next RoundTripper in the chain.
	Delegate http.RoundTripper

	// LoggerProvider is a function that provides a context-specific logger.
	LoggerProvider func(ctx context.Context) log.FieldLogger

	// RequestIDProvider is a function that provides a request ID.
	RequestIDProvider func(ctx context.Context) string

	// MetricsCollector is a metrics collector.
	MetricsCollector MetricsCollector
}

// New creates an HTTP client which transport tracks outgoing requests in the given tracker.
func New(cfg *Config, tracker *busy.Tracker) (*http.Client, error) {
	return NewWithOpts(cfg, Opts{Tracker: tracker})
}

// Must creates an HTTP client which transport tracks outgoing requests in the given tracker
// and panics if any error occurs.
func Must(cfg *Config, tracker *busy.Tracker) *http.Client {
	client, err := New(cfg, tracker)
	if err != nil {
		panic(err)
	}
	return client
}

// NewWithOpts wraps delegate transport with logging, metrics, request id and busy tracking round trippers.
// Busy tracking is the outermost one, so a request is outstanding for the whole time it spends in the chain.
// A redirected call is tracked as a single request from the first hop to the completion of the last one.
func NewWithOpts(cfg *Config, opts Opts) (*http.Client, error) {
	if cfg.Busy.Enabled && opts.Tracker == nil {
		return nil, ErrTrackerRequired
	}

	delegate := opts.Delegate
	if delegate == nil {
		delegate = http.DefaultTransport.(*http.Transport).Clone()
	}

	if cfg.Logger.Enabled {
		logOpts := cfg.Logger.TransportOpts()
		logOpts.LoggerProvider = opts.LoggerProvider
		delegate = NewLoggingRoundTripperWithOpts(delegate, logOpts)
	}

	if cfg.Metrics.Enabled && opts.MetricsCollector != nil {
		delegate = NewMetricsRoundTripper(delegate, opts.MetricsCollector)
	}

	delegate = NewRequestIDRoundTripperWithOpts(delegate, RequestIDRoundTripperOpts{
		RequestIDProvider: opts.RequestIDProvider,
	})

	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.Busy.Enabled {
		busyRT := newBusyRoundTripper(delegate, opts.Tracker, cfg.Busy.TransportOpts())
		client.CheckRedirect = busyRT.WrapCheckRedirect(nil)
		delegate = busyRT
	}
	client.Transport = delegate
	return client, nil
}

// MustWithOpts is the same as NewWithOpts but panics if any error occurs.
func MustWithOpts(cfg *Config, opts Opts) *http.Client {
	client, err := NewWithOpts(cfg, opts)
	if err != nil {
		panic(err)
	}
	return client
}
