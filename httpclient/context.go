/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import "context"

type ctxKey int

const (
	ctxKeyRequestName ctxKey = iota
	ctxKeyNotBusy
)

// NewContextWithRequestName creates a new context with the logical name of the outgoing request.
// The name is reported in busy notifications, logs and metrics.
func NewContextWithRequestName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestName, name)
}

// GetRequestNameFromContext extracts the logical name of the outgoing request from the context.
func GetRequestNameFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeyRequestName).(string)
	return s
}

// NewContextWithNotBusy returns a derived context that marks outgoing requests as invisible to busy tracking.
func NewContextWithNotBusy(ctx context.Context, notBusy bool) context.Context {
	return context.WithValue(ctx, ctxKeyNotBusy, notBusy)
}

// GetNotBusyFromContext reports whether outgoing requests made with the context are excluded from busy tracking.
// Returns false when the key is not present.
func GetNotBusyFromContext(ctx context.Context) bool {
	b, _ := ctx.Value(ctxKeyNotBusy).(bool)
	return b
}
