/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/acronis/go-busy/httpserver/middleware"
	"github.com/acronis/go-busy/log"
	"github.com/acronis/go-busy/restapi"
)

// StatusClientClosedRequest is the nginx status for requests whose client went away before the response.
const StatusClientClosedRequest = 499

// HealthCheckStatus is a status of a single checked component.
type HealthCheckStatus int

// Health-check statuses.
const (
	HealthCheckStatusOK HealthCheckStatus = iota
	HealthCheckStatusFail
)

// HealthCheckResult maps component names to their statuses.
type HealthCheckResult = map[string]HealthCheckStatus

// HealthCheck checks the service's components. An error means the check itself could not be done.
type HealthCheck = func(ctx context.Context) (HealthCheckResult, error)

type healthCheckResponseData struct {
	Components map[string]bool `json:"components"`
}

// HealthCheckHandler serves /healthz: 200 when every component is OK, 503 when any fails,
// 500 when the check returns an error.
type HealthCheckHandler struct {
	check HealthCheck
}

// NewHealthCheckHandler creates a HealthCheckHandler. A nil check reports no components.
func NewHealthCheckHandler(check HealthCheck) *HealthCheckHandler {
	if check == nil {
		check = func(ctx context.Context) (HealthCheckResult, error) {
			return HealthCheckResult{}, ctx.Err()
		}
	}
	return &HealthCheckHandler{check: check}
}

func (h *HealthCheckHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLoggerFromContext(ctx)
	if logger == nil {
		logger = log.NewDisabledLogger()
	}

	result, err := h.check(ctx)
	if errors.Is(err, context.Canceled) || (err == nil && errors.Is(ctx.Err(), context.Canceled)) {
		rw.WriteHeader(StatusClientClosedRequest)
		return
	}
	if err != nil {
		logger.Error("health check failed", log.Error(err))
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	data := healthCheckResponseData{Components: make(map[string]bool, len(result))}
	for name, st := range result {
		healthy := st == HealthCheckStatusOK
		data.Components[name] = healthy
		if !healthy {
			status = http.StatusServiceUnavailable
		}
	}
	restapi.RespondCodeAndJSON(rw, status, data, logger)
}
