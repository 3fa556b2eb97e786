/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/acronis/go-busy/config"
)

const statusServerYAML = `
server:
  address: "127.0.0.1:8080"
  timeouts: {write: 1h, read: 7m, readHeader: 1m, idle: 20m, shutdown: 30s}
  log:
    requestStart: true
    excludedEndpoints: [/api/busy/v1/status]
  tls: {enabled: true, cert: /etc/busymon/cert.pem, key: /etc/busymon/key.pem}
  events: {bufferSize: 64}
`

const statusServerJSON = `{"server": {
  "address": "127.0.0.1:8080",
  "timeouts": {"write": "1h", "read": "7m", "readHeader": "1m", "idle": "20m", "shutdown": "30s"},
  "log": {"requestStart": true, "excludedEndpoints": ["/api/busy/v1/status"]},
  "tls": {"enabled": true, "cert": "/etc/busymon/cert.pem", "key": "/etc/busymon/key.pem"},
  "events": {"bufferSize": 64}
}}`

func loadServerConfig(data string, dataType config.DataType, cfg *Config) error {
	return config.NewLoader(config.NewViperAdapter()).LoadFromReader(strings.NewReader(data), dataType, cfg)
}

func TestConfig_DecodingWays(t *testing.T) {
	want := NewDefaultConfig()
	want.Address = "127.0.0.1:8080"
	want.Timeouts = TimeoutsConfig{
		Write:      config.TimeDuration(time.Hour),
		Read:       config.TimeDuration(7 * time.Minute),
		ReadHeader: config.TimeDuration(time.Minute),
		Idle:       config.TimeDuration(20 * time.Minute),
		Shutdown:   config.TimeDuration(30 * time.Second),
	}
	want.Log = LogConfig{RequestStart: true, ExcludedEndpoints: []string{"/api/busy/v1/status"}}
	want.TLS = TLSConfig{Enabled: true, Certificate: "/etc/busymon/cert.pem", Key: "/etc/busymon/key.pem"}
	want.Events.BufferSize = 64

	type appConfig struct {
		Server *Config `mapstructure:"server" json:"server" yaml:"server"`
	}

	for dataType, data := range map[config.DataType]string{
		config.DataTypeYAML: statusServerYAML,
		config.DataTypeJSON: statusServerJSON,
	} {
		t.Run(string(dataType), func(t *testing.T) {
			cfg := NewConfig()
			require.NoError(t, loadServerConfig(data, dataType, cfg))
			require.Equal(t, want, cfg)

			app := appConfig{Server: NewDefaultConfig()}
			vpr := viper.New()
			vpr.SetConfigType(string(dataType))
			require.NoError(t, vpr.ReadConfig(strings.NewReader(data)))
			require.NoError(t, vpr.Unmarshal(&app, func(c *mapstructure.DecoderConfig) {
				c.DecodeHook = mapstructure.TextUnmarshallerHookFunc()
			}))
			require.Equal(t, want, app.Server)

			app = appConfig{Server: NewDefaultConfig()}
			if dataType == config.DataTypeYAML {
				require.NoError(t, yaml.Unmarshal([]byte(data), &app))
			} else {
				require.NoError(t, json.Unmarshal([]byte(data), &app))
			}
			require.Equal(t, want, app.Server)
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, config.NewDefaultLoader("").LoadFromReader(strings.NewReader(""), config.DataTypeYAML, cfg))
	require.Equal(t, NewDefaultConfig(), cfg)
	require.Zero(t, cfg.Timeouts.Write, "event streams must not be cut by the write timeout")
	require.Equal(t, DefaultEventsBufferSize, cfg.Events.BufferSize)
}

func TestConfig_KeyPrefix(t *testing.T) {
	cfg := NewConfig(WithKeyPrefix("monitor.status"))
	require.NoError(t, loadServerConfig("monitor:\n  status:\n    address: 127.0.0.1:9999\n", config.DataTypeYAML, cfg))

	want := NewDefaultConfig(WithKeyPrefix("monitor.status"))
	want.Address = "127.0.0.1:9999"
	require.Equal(t, want, cfg)

	zero := &Config{}
	require.NoError(t, loadServerConfig("server:\n  unixSocketPath: /run/busymon.sock\n", config.DataTypeYAML, zero))
	require.Equal(t, "/run/busymon.sock", zero.UnixSocketPath)
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		data    string
		wantErr string
	}{
		{data: "server:\n  address: []\n", wantErr: "server.address: unable to cast"},
		{data: "server:\n  address: ''\n", wantErr: "server.address: either address or unixSocketPath should be set"},
		{data: "server:\n  timeouts: {idle: -1s}\n", wantErr: "server.timeouts.idle: cannot be negative"},
		{data: "server:\n  tls: {enabled: true, cert: /c.pem}\n", wantErr: "server.tls.key: both cert and key should be set"},
		{data: "server:\n  events: {bufferSize: 0}\n", wantErr: "server.events.bufferSize: must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.wantErr, func(t *testing.T) {
			require.ErrorContains(t, loadServerConfig(tt.data, config.DataTypeYAML, NewConfig()), tt.wantErr)
		})
	}
}
