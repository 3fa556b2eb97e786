/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/stretchr/testify/require"
)

const contentTypeAppJSON = "application/json"

// response is the part of an HTTP response the assertions look at.
type response struct {
	code   int
	header http.Header
	body   io.Reader
}

func recorded(rec *httptest.ResponseRecorder) response {
	return response{code: rec.Code, header: rec.Header(), body: rec.Body}
}

func received(resp *http.Response) response {
	return response{code: resp.StatusCode, header: resp.Header, body: resp.Body}
}

func (r response) requireError(t require.TestingT, wantHTTPCode int, wantErrDomain, wantErrCode string) {
	helper(t)
	require.Equal(t, wantHTTPCode, r.code)
	require.Equal(t, contentTypeAppJSON, r.header.Get("Content-Type"))
	var got struct {
		Error struct {
			Domain string `json:"domain"`
			Code   string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(r.body).Decode(&got))
	require.Equal(t, wantErrDomain, got.Error.Domain)
	require.Equal(t, wantErrCode, got.Error.Code)
}

func (r response) requireJSON(t require.TestingT, want, dest interface{}) {
	helper(t)
	require.Equal(t, contentTypeAppJSON, r.header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(r.body).Decode(dest))
	require.Equal(t, want, dest)
}

// RequireErrorInRecorder requires the recorded response to be a JSON error
// {"error": {"domain": wantErrDomain, "code": wantErrCode, ...}} with wantHTTPCode status.
func RequireErrorInRecorder(t require.TestingT, rec *httptest.ResponseRecorder, wantHTTPCode int, wantErrDomain, wantErrCode string) {
	helper(t)
	recorded(rec).requireError(t, wantHTTPCode, wantErrDomain, wantErrCode)
}

// RequireErrorInResponse is RequireErrorInRecorder for a response received by a client.
func RequireErrorInResponse(t require.TestingT, resp *http.Response, wantHTTPCode int, wantErrDomain, wantErrCode string) {
	helper(t)
	received(resp).requireError(t, wantHTTPCode, wantErrDomain, wantErrCode)
}

// RequireEmptyBodyInRecorder requires the recorded response to have no body.
func RequireEmptyBodyInRecorder(t require.TestingT, rec *httptest.ResponseRecorder) {
	helper(t)
	require.Zero(t, rec.Body.Len())
}

// RequireJSONInRecorder decodes the recorded JSON body into dest and requires it to equal want.
func RequireJSONInRecorder(t require.TestingT, rec *httptest.ResponseRecorder, want, dest interface{}) {
	helper(t)
	recorded(rec).requireJSON(t, want, dest)
}

// RequireJSONInResponse is RequireJSONInRecorder for a response received by a client.
func RequireJSONInResponse(t require.TestingT, resp *http.Response, want, dest interface{}) {
	helper(t)
	received(resp).requireJSON(t, want, dest)
}
