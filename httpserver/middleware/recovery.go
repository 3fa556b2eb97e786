/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/acronis/go-busy/log"
	"github.com/acronis/go-busy/restapi"
)

// RecoveryDefaultStackSize is the default number of stack bytes logged with a recovered panic.
const RecoveryDefaultStackSize = 8192

// RecoveryOpts represents an options for Recovery middleware.
type RecoveryOpts struct {
	// StackSize limits the logged stack. Zero disables stack logging.
	StackSize int
}

// Recovery is a middleware that turns a handler panic into a logged error and a 500 response with an error body.
// When the handler has already started its response (e.g. an event stream), only the log entry is written.
// http.ErrAbortHandler is re-panicked, so net/http aborts the connection silently.
func Recovery(errDomain string) func(next http.Handler) http.Handler {
	return RecoveryWithOpts(errDomain, RecoveryOpts{StackSize: RecoveryDefaultStackSize})
}

// RecoveryWithOpts is a more configurable version of Recovery middleware.
func RecoveryWithOpts(errDomain string, opts RecoveryOpts) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			wrw := WrapResponseWriterIfNeeded(rw, r.ProtoMajor)
			defer func() {
				if p := recover(); p != nil {
					handlePanic(wrw, r, p, errDomain, opts.StackSize)
				}
			}()
			next.ServeHTTP(wrw, r)
		})
	}
}

func handlePanic(wrw chimiddleware.WrapResponseWriter, r *http.Request, p interface{}, errDomain string, stackSize int) {
	logger := GetLoggerFromContext(r.Context())
	if logger == nil {
		logger = log.NewDisabledLogger()
	}

	if p == http.ErrAbortHandler {
		logger.Warn("request has been aborted", log.Error(http.ErrAbortHandler))
		panic(p)
	}

	fields := []log.Field{log.String("panic", fmt.Sprintf("%+v", p))}
	if stackSize > 0 {
		stack := make([]byte, stackSize)
		fields = append(fields, log.Bytes("stack", stack[:runtime.Stack(stack, false)]))
	}
	logger.Error("handler panicked", fields...)

	if wrw.Status() != 0 {
		return
	}
	restapi.RespondError(wrw, http.StatusInternalServerError, restapi.NewInternalError(errDomain), logger)
}
