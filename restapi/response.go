/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/acronis/go-busy/log"
)

// ContentTypeAppJSON represents MIME media type for JSON.
const ContentTypeAppJSON = "application/json"

// marshalJSON encodes v without HTML escaping, busy payloads carry URLs with '&' in queries.
func marshalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// RespondJSON writes data as JSON with 200 status.
func RespondJSON(rw http.ResponseWriter, data interface{}, logger log.FieldLogger) {
	RespondCodeAndJSON(rw, http.StatusOK, data, logger)
}

// RespondCodeAndJSON writes data as JSON with the given status. Nil data gives an empty body.
// Content-Type is set to application/json unless the handler has set it.
// If data cannot be encoded, 500 with an empty body is written instead.
func RespondCodeAndJSON(rw http.ResponseWriter, statusCode int, data interface{}, logger log.FieldLogger) {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	if data == nil {
		rw.WriteHeader(statusCode)
		return
	}

	body, err := marshalJSON(data)
	if err != nil {
		logger.Error("cannot encode response body", log.Error(err))
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}
	if rw.Header().Get("Content-Type") == "" {
		rw.Header().Set("Content-Type", ContentTypeAppJSON)
	}
	rw.WriteHeader(statusCode)
	if _, err = rw.Write(body); err != nil {
		logger.Error("cannot write response body", log.Error(err))
	}
}

// ErrorResponseData is the body of error responses: {"error": {"domain": ..., "code": ..., ...}}.
// It's also an error, so clients may get it with errors.As.
type ErrorResponseData struct {
	Err *Error `json:"error"`
}

func (e *ErrorResponseData) Error() string {
	if e.Err == nil {
		return "error response"
	}
	return fmt.Sprintf("error response %s.%s: %s", e.Err.Domain, e.Err.Code, e.Err.Message)
}

// RespondError writes err wrapped into ErrorResponseData with the given status.
// The error is logged and counted in the response_errors metric when it's registered.
func RespondError(rw http.ResponseWriter, httpStatusCode int, err *Error, logger log.FieldLogger) {
	if logger != nil {
		logger.Error("error in response", errorLogFields(err)...)
	}
	countResponseError(err)
	RespondCodeAndJSON(rw, httpStatusCode, ErrorResponseData{Err: err}, logger)
}

func errorLogFields(err *Error) []log.Field {
	fields := []log.Field{log.String("error_code", err.Code), log.String("error_message", err.Message)}
	if len(err.Context) == 0 {
		return fields
	}
	lines := make([]string, 0, len(err.Context))
	for k, v := range err.Context {
		lines = append(lines, fmt.Sprintf("%s: %v", k, v))
	}
	sort.Strings(lines)
	return append(fields, log.Strings("error_context", lines))
}
