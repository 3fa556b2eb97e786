/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/acronis/go-busy/log"
)

// maxUnexpectedBodySize bounds the part of a non-JSON error body kept in the error context.
const maxUnexpectedBodySize = 255

// DoRequest does the request with debug logging of the request and the response status.
func DoRequest(client *http.Client, req *http.Request, logger log.FieldLogger) (*http.Response, error) {
	logger = logger.With(log.String("method", req.Method), log.String("uri", req.URL.String()))
	logger.AtLevel(log.LevelDebug, func(logFn log.LogFunc) { logFn("sending request") })

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("request failed", log.Error(err))
		return nil, fmt.Errorf("do request: %w", err)
	}
	logger.AtLevel(log.LevelDebug, func(logFn log.LogFunc) {
		logFn("response received", log.Int("status", resp.StatusCode))
	})
	return resp, nil
}

// DoRequestAndUnmarshalJSON does the request and decodes the 2xx JSON response body into result.
// A nil result means the body is only drained.
// Any other outcome gives *ClientError. For 4xx and 5xx it wraps *ErrorResponseData,
// built from the body even when the body isn't JSON (a proxy page, for instance).
// The response body is always closed.
func DoRequestAndUnmarshalJSON(client *http.Client, req *http.Request, result interface{}, logger log.FieldLogger) error {
	resp, err := DoRequest(client, req, logger)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("cannot close response body", log.Error(closeErr))
		}
	}()

	clientErr := func(msg string, err error) *ClientError {
		return &ClientError{Message: msg, Method: req.Method, URL: req.URL, StatusCode: resp.StatusCode, Err: err}
	}
	readBody := func() ([]byte, error) {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, clientErr("reading response body", readErr)
		}
		if len(body) == 0 {
			return nil, clientErr("empty response", nil)
		}
		return body, nil
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if result == nil {
			return nil
		}
		body, err := readBody()
		if err != nil {
			return err
		}
		if err = json.Unmarshal(body, result); err != nil {
			return clientErr("unmarshaling response", err)
		}
		return nil

	case resp.StatusCode >= 400 && resp.StatusCode < 600:
		body, err := readBody()
		if err != nil {
			return err
		}
		contentType := resp.Header.Get("Content-Type")
		if mediaType, _, _ := mime.ParseMediaType(contentType); mediaType != ContentTypeAppJSON {
			if len(body) > maxUnexpectedBodySize {
				body = body[:maxUnexpectedBodySize]
			}
			return clientErr("error response", &ErrorResponseData{Err: &Error{
				Code:    resp.Status,
				Message: http.StatusText(resp.StatusCode) + " received with unexpected Content-Type",
				Context: map[string]interface{}{"content-type": contentType, "body": string(body)},
			}})
		}
		var apiErr ErrorResponseData
		if err = json.Unmarshal(body, &apiErr); err != nil {
			return clientErr("unmarshaling error response", err)
		}
		return clientErr("error response", &apiErr)
	}

	return clientErr("unexpected status code", nil)
}
