/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package testutil contains assertions for Prometheus metrics and HTTP responses
// and helpers for local TCP servers.
package testutil

func helper(t interface{}) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
}
