/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"context"
	"time"

	"github.com/acronis/go-busy/log"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyLogger
	ctxKeyRequestStartTime
)

// fromContext returns the zero T when the key is absent.
func fromContext[T any](ctx context.Context, key ctxKey) T {
	v, _ := ctx.Value(key).(T)
	return v
}

// NewContextWithRequestID returns a copy of ctx carrying the X-Request-ID value.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// GetRequestIDFromContext returns the X-Request-ID value set by RequestID middleware.
// Outgoing calls of httpclient propagate it, so a busy episode can be correlated with the status request that caused it.
func GetRequestIDFromContext(ctx context.Context) string {
	return fromContext[string](ctx, ctxKeyRequestID)
}

// NewContextWithLogger returns a copy of ctx carrying the request-scoped logger.
func NewContextWithLogger(ctx context.Context, logger log.FieldLogger) context.Context {
	return context.WithValue(ctx, ctxKeyLogger, logger)
}

// GetLoggerFromContext returns the request-scoped logger or nil.
func GetLoggerFromContext(ctx context.Context) log.FieldLogger {
	return fromContext[log.FieldLogger](ctx, ctxKeyLogger)
}

// NewContextWithRequestStartTime returns a copy of ctx carrying the time the request was accepted.
func NewContextWithRequestStartTime(ctx context.Context, startTime time.Time) context.Context {
	return context.WithValue(ctx, ctxKeyRequestStartTime, startTime)
}

// GetRequestStartTimeFromContext returns the request start time or the zero time.
func GetRequestStartTimeFromContext(ctx context.Context) time.Time {
	return fromContext[time.Time](ctx, ctxKeyRequestStartTime)
}
