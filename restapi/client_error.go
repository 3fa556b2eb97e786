/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"fmt"
	"net/url"
)

// ClientError is returned by DoRequestAndUnmarshalJSON when the response is not a successful JSON one.
// For error responses with a JSON body Err is *ErrorResponseData.
type ClientError struct {
	Message    string
	Method     string
	URL        *url.URL
	StatusCode int
	Err        error
}

func (e *ClientError) Error() string {
	msg := fmt.Sprintf("%s %s: %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ClientError) Unwrap() error {
	return e.Err
}
