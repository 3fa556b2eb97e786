/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequireErrorInRecorder(t *testing.T) {
	tests := []struct {
		name            string
		respCode        int
		respContentType string
		respBody        string
		wantFailed      bool
	}{
		{
			name:            "ok",
			respCode:        http.StatusNotFound,
			respContentType: contentTypeAppJSON,
			respBody:        `{"error":{"domain":"Busy","code":"notFound"}}`,
		},
		{
			name:            "invalid code",
			respCode:        http.StatusBadRequest,
			respContentType: contentTypeAppJSON,
			respBody:        `{"error":{"domain":"Busy","code":"notFound"}}`,
			wantFailed:      true,
		},
		{
			name:            "invalid content type",
			respCode:        http.StatusNotFound,
			respContentType: "text/html",
			respBody:        `{"error":{"domain":"Busy","code":"notFound"}}`,
			wantFailed:      true,
		},
		{
			name:            "invalid err domain",
			respCode:        http.StatusNotFound,
			respContentType: contentTypeAppJSON,
			respBody:        `{"error":{"domain":"Other","code":"notFound"}}`,
			wantFailed:      true,
		},
		{
			name:            "not wrapped",
			respCode:        http.StatusNotFound,
			respContentType: contentTypeAppJSON,
			respBody:        `{"domain":"Busy","code":"notFound"}`,
			wantFailed:      true,
		},
	}
	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			resp.Header().Set("Content-Type", tt.respContentType)
			resp.WriteHeader(tt.respCode)
			_, err := resp.WriteString(tt.respBody)
			require.NoError(t, err)

			mockT := &MockT{}
			RequireErrorInRecorder(mockT, resp, http.StatusNotFound, "Busy", "notFound")
			require.Equal(t, tt.wantFailed, mockT.Failed)
		})
	}
}

func TestRequireJSONInRecorder(t *testing.T) {
	type status struct {
		Outstanding int  `json:"outstanding"`
		Busy        bool `json:"busy"`
	}

	resp := httptest.NewRecorder()
	resp.Header().Set("Content-Type", contentTypeAppJSON)
	_, err := resp.WriteString(`{"outstanding":2,"busy":true}`)
	require.NoError(t, err)

	mockT := &MockT{}
	RequireJSONInRecorder(mockT, resp, &status{Outstanding: 2, Busy: true}, &status{})
	require.False(t, mockT.Failed)
}
