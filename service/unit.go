/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package service provides the lifecycle primitives busymon is assembled from:
// units that can be started and stopped, their composition, and periodic workers.
package service

// Unit represents a service component with its own lifecycle.
type Unit interface {
	// Start runs the unit. It may return right after initialization or block for the unit's lifetime.
	// A fatal error is reported by writing it to the channel, the channel must not be used after Start returns.
	Start(fatalErr chan<- error)

	// Stop halts the unit. It may be called even if Start has failed or was never called.
	Stop(gracefully bool) error
}

// MetricsRegisterer is an interface for objects that can register its own metrics.
type MetricsRegisterer interface {
	MustRegisterMetrics()
	UnregisterMetrics()
}
