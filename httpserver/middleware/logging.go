/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"
	"time"

	"github.com/acronis/go-busy/log"
)

// LoggingOpts represents an options for Logging middleware.
type LoggingOpts struct {
	// RequestStart adds an entry when the request is accepted. Useful for event streams that stay open for hours.
	RequestStart bool

	// ExcludedEndpoints are URL paths which successful requests are not logged.
	ExcludedEndpoints []string
}

// Logging is a middleware that logs every served request once it's completed
// and puts a logger with the request id into the request's context.
func Logging(logger log.FieldLogger) func(next http.Handler) http.Handler {
	return LoggingWithOpts(logger, LoggingOpts{})
}

// LoggingWithOpts is a more configurable version of Logging middleware.
func LoggingWithOpts(logger log.FieldLogger, opts LoggingOpts) func(next http.Handler) http.Handler {
	excluded := make(map[string]struct{}, len(opts.ExcludedEndpoints))
	for _, endpoint := range opts.ExcludedEndpoints {
		excluded[endpoint] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			startTime := GetRequestStartTimeFromContext(ctx)
			if startTime.IsZero() {
				startTime = time.Now()
				ctx = NewContextWithRequestStartTime(ctx, startTime)
			}

			// Handlers get the request id only, the access entry carries the request line as well.
			handlerLogger := logger.With(log.String("request_id", GetRequestIDFromContext(ctx)))
			accessLogger := handlerLogger.With(
				log.String("method", r.Method),
				log.String("uri", r.RequestURI),
				log.String("remote_addr", r.RemoteAddr),
				log.String("user_agent", r.UserAgent()),
			)

			_, quiet := excluded[r.URL.Path]
			if opts.RequestStart && !quiet {
				accessLogger.Info("request started")
			}

			wrw := WrapResponseWriterIfNeeded(rw, r.ProtoMajor)
			next.ServeHTTP(wrw, r.WithContext(NewContextWithLogger(ctx, handlerLogger)))

			status := wrappedStatus(wrw)
			if quiet && status < http.StatusBadRequest {
				return
			}
			msg := "response completed"
			if isEventStream(wrw.Header()) {
				msg = "event stream closed"
			}
			elapsed := time.Since(startTime)
			accessLogger.Info(msg,
				log.Int64("duration_ms", elapsed.Milliseconds()),
				log.Int("status", status),
				log.Int("bytes_sent", wrw.BytesWritten()),
			)
		})
	}
}
