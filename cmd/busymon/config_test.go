/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-busy/busy/presenter"
	"github.com/acronis/go-busy/httpclient"
)

func TestLoadAppConfig(t *testing.T) {
	cfgData := `
log:
  level: debug
server:
  address: "127.0.0.1:9090"
  events:
    bufferSize: 4
client:
  timeout: 3s
  busy:
    completeOn: headers
profServer:
  enabled: false
  address: "127.0.0.1:6061"
probe:
  interval: 30s
  targets:
    - url: "http://127.0.0.1:8081/health"
      name: health
    - url: "https://example.com/feed"
      method: head
      notBusy: true
presenters:
  save-button:
    content: Save
    classes: "btn btn-primary"
    busy: "Saving..."
    busyWhenName: health
    busyAddClasses: spinner
    notBusyDisabled: "false"
  search:
    classes: [input, wide]
    disabled: true
    busyWhenUrl: "https://example.com/feed"
`
	cfg, err := LoadAppConfig(bytes.NewBufferString(cfgData), "BUSYMON_TEST")
	require.NoError(t, err)

	require.Equal(t, "debug", string(cfg.Log.Level))
	require.Equal(t, "127.0.0.1:9090", cfg.Server.Address)
	require.Equal(t, 4, cfg.Server.Events.BufferSize)
	require.Equal(t, 3*time.Second, cfg.Client.Timeout)
	require.True(t, cfg.Client.Busy.Enabled)
	require.Equal(t, httpclient.CompleteOnHeaders, cfg.Client.Busy.CompleteOn)

	require.Equal(t, 30*time.Second, cfg.Probe.Interval)
	require.Equal(t, []ProbeTarget{
		{URL: "http://127.0.0.1:8081/health", Name: "health", Method: http.MethodGet},
		{URL: "https://example.com/feed", Method: http.MethodHead, NotBusy: true},
	}, cfg.Probe.Targets)

	require.Len(t, cfg.Presenters.Elements, 2)
	saveBtn := cfg.Presenters.Elements["save-button"]
	require.Equal(t, "Save", saveBtn.Content)
	require.Equal(t, "btn btn-primary", saveBtn.Classes)
	require.False(t, saveBtn.Disabled)
	require.Equal(t, presenter.Options{
		BusyText:       "Saving...",
		BusyWhenName:   "health",
		BusyAddClasses: "spinner",
		BusyDisabled:   true,
	}, saveBtn.Options)

	require.False(t, cfg.ProfServer.Enabled)

	search := cfg.Presenters.Elements["search"]
	require.Equal(t, "input wide", search.Classes)
	require.True(t, search.Disabled)
	require.Equal(t, presenter.DefaultBusyText, search.Options.BusyText)
	require.Equal(t, "https://example.com/feed", search.Options.BusyWhenURL)
}

func TestLoadAppConfig_Defaults(t *testing.T) {
	cfg, err := LoadAppConfig(bytes.NewBufferString("log:\n  level: info\n"), "BUSYMON_TEST")
	require.NoError(t, err)
	require.Equal(t, DefaultProbeInterval, cfg.Probe.Interval)
	require.Empty(t, cfg.Probe.Targets)
	require.Empty(t, cfg.Presenters.Elements)
	require.Equal(t, ":8080", cfg.Server.Address)
	require.True(t, cfg.Client.Busy.Enabled)
	require.Equal(t, httpclient.CompleteOnBody, cfg.Client.Busy.CompleteOn)
	require.False(t, cfg.ProfServer.Enabled)
}

func TestLoadAppConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfgData string
		wantErr string
	}{
		{
			name:    "non-positive probe interval",
			cfgData: "probe:\n  interval: 0s\n",
			wantErr: "probe.interval: must be positive",
		},
		{
			name:    "target without url",
			cfgData: "probe:\n  targets:\n    - name: foo\n",
			wantErr: "probe.targets[0]: url is required",
		},
		{
			name:    "target with unsupported scheme",
			cfgData: "probe:\n  targets:\n    - url: \"ftp://example.com\"\n",
			wantErr: `probe.targets[0]: unsupported url scheme "ftp"`,
		},
		{
			name:    "unknown presenter attribute",
			cfgData: "presenters:\n  btn:\n    busyWhenHost: example.com\n",
			wantErr: "presenters.btn: decode presenter options",
		},
		{
			name:    "invalid busy complete mode",
			cfgData: "client:\n  busy:\n    completeOn: never\n",
			wantErr: "client.busy.completeOn",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAppConfig(bytes.NewBufferString(tt.cfgData), "BUSYMON_TEST")
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadAppConfigFromFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "busymon.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("server:\n  address: \"127.0.0.1:7070\"\n"), 0o600))

	cfg, err := LoadAppConfigFromFile(cfgPath, "BUSYMON_TEST")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7070", cfg.Server.Address)

	_, err = LoadAppConfigFromFile(filepath.Join(t.TempDir(), "missing.yaml"), "BUSYMON_TEST")
	require.ErrorIs(t, err, os.ErrNotExist)
}
