/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"errors"
	"time"

	"github.com/acronis/go-busy/config"
)

const cfgDefaultKeyPrefix = "server"

// Defaults of the status server.
const (
	DefaultAddress             = ":8080"
	DefaultReadTimeout         = 15 * time.Second
	DefaultReadHeaderTimeout   = 10 * time.Second
	DefaultIdleTimeout         = time.Minute
	DefaultGracefulStopTimeout = 5 * time.Second
)

// Config is a configuration of the status server.
//
//	server:
//	  address: ":8080"           # or unixSocketPath
//	  unixSocketPath: ""
//	  timeouts: {write: 0, read: 15s, readHeader: 10s, idle: 1m, shutdown: 5s}
//	  log: {requestStart: false, excludedEndpoints: []}
//	  tls: {enabled: false, cert: "", key: ""}
//	  events: {bufferSize: 16}
//
// The write timeout is zero by default, a non-zero value would cut busy event streams.
// The struct may also be decoded with json, yaml or viper directly.
type Config struct {
	Address        string         `mapstructure:"address" yaml:"address" json:"address"`
	UnixSocketPath string         `mapstructure:"unixSocketPath" yaml:"unixSocketPath" json:"unixSocketPath"`
	Timeouts       TimeoutsConfig `mapstructure:"timeouts" yaml:"timeouts" json:"timeouts"`
	Log            LogConfig      `mapstructure:"log" yaml:"log" json:"log"`
	TLS            TLSConfig      `mapstructure:"tls" yaml:"tls" json:"tls"`
	Events         EventsConfig   `mapstructure:"events" yaml:"events" json:"events"`

	keyPrefix string
}

// TimeoutsConfig holds the server's timeouts. Shutdown bounds the graceful stop.
type TimeoutsConfig struct {
	Write      config.TimeDuration `mapstructure:"write" yaml:"write" json:"write"`
	Read       config.TimeDuration `mapstructure:"read" yaml:"read" json:"read"`
	ReadHeader config.TimeDuration `mapstructure:"readHeader" yaml:"readHeader" json:"readHeader"`
	Idle       config.TimeDuration `mapstructure:"idle" yaml:"idle" json:"idle"`
	Shutdown   config.TimeDuration `mapstructure:"shutdown" yaml:"shutdown" json:"shutdown"`
}

// LogConfig configures the access log of the server.
type LogConfig struct {
	RequestStart      bool     `mapstructure:"requestStart" yaml:"requestStart" json:"requestStart"`
	ExcludedEndpoints []string `mapstructure:"excludedEndpoints" yaml:"excludedEndpoints" json:"excludedEndpoints"`
}

// TLSConfig enables HTTPS. Both files are required when it's enabled.
type TLSConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Certificate string `mapstructure:"cert" yaml:"cert" json:"cert"`
	Key         string `mapstructure:"key" yaml:"key" json:"key"`
}

// EventsConfig configures the busy events stream.
type EventsConfig struct {
	// BufferSize is the number of notifications buffered per connection.
	// Notifications that don't fit are dropped for that connection.
	BufferSize int `mapstructure:"bufferSize" yaml:"bufferSize" json:"bufferSize"`
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// ConfigOption is a functional option for NewConfig and NewDefaultConfig.
type ConfigOption func(*Config)

// WithKeyPrefix sets the section of the configuration data the server config is read from.
func WithKeyPrefix(keyPrefix string) ConfigOption {
	return func(c *Config) {
		c.keyPrefix = keyPrefix
	}
}

// NewConfig creates an empty Config. Values are set by config.Loader.
func NewConfig(options ...ConfigOption) *Config {
	c := &Config{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// NewDefaultConfig creates a Config filled with defaults.
func NewDefaultConfig(options ...ConfigOption) *Config {
	c := NewConfig(options...)
	c.Address = DefaultAddress
	c.Timeouts = TimeoutsConfig{
		Read:       config.TimeDuration(DefaultReadTimeout),
		ReadHeader: config.TimeDuration(DefaultReadHeaderTimeout),
		Idle:       config.TimeDuration(DefaultIdleTimeout),
		Shutdown:   config.TimeDuration(DefaultGracefulStopTimeout),
	}
	c.Events.BufferSize = DefaultEventsBufferSize
	return c
}

// KeyPrefix implements config.KeyPrefixProvider.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults implements config.Config.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault("address", DefaultAddress)
	dp.SetDefault("timeouts.read", DefaultReadTimeout)
	dp.SetDefault("timeouts.readHeader", DefaultReadHeaderTimeout)
	dp.SetDefault("timeouts.idle", DefaultIdleTimeout)
	dp.SetDefault("timeouts.shutdown", DefaultGracefulStopTimeout)
	dp.SetDefault("events.bufferSize", DefaultEventsBufferSize)
}

// Set implements config.Config.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	if c.Address, err = dp.GetString("address"); err != nil {
		return err
	}
	if c.UnixSocketPath, err = dp.GetString("unixSocketPath"); err != nil {
		return err
	}
	if c.Address == "" && c.UnixSocketPath == "" {
		return dp.WrapKeyErr("address", errors.New("either address or unixSocketPath should be set"))
	}

	sections := []struct {
		key string
		set func(config.DataProvider) error
	}{
		{"timeouts", c.Timeouts.set},
		{"log", c.Log.set},
		{"tls", c.TLS.set},
		{"events", c.Events.set},
	}
	for _, s := range sections {
		if err = s.set(dp.WithKeyPrefix(s.key)); err != nil {
			return err
		}
	}
	return nil
}

func (t *TimeoutsConfig) set(dp config.DataProvider) error {
	for key, dst := range map[string]*config.TimeDuration{
		"write":      &t.Write,
		"read":       &t.Read,
		"readHeader": &t.ReadHeader,
		"idle":       &t.Idle,
		"shutdown":   &t.Shutdown,
	} {
		d, err := dp.GetDuration(key)
		if err != nil {
			return err
		}
		if d < 0 {
			return dp.WrapKeyErr(key, errors.New("cannot be negative"))
		}
		*dst = config.TimeDuration(d)
	}
	return nil
}

func (l *LogConfig) set(dp config.DataProvider) (err error) {
	if l.RequestStart, err = dp.GetBool("requestStart"); err != nil {
		return err
	}
	l.ExcludedEndpoints, err = dp.GetStringSlice("excludedEndpoints")
	return err
}

func (s *TLSConfig) set(dp config.DataProvider) (err error) {
	if s.Enabled, err = dp.GetBool("enabled"); err != nil {
		return err
	}
	if s.Certificate, err = dp.GetString("cert"); err != nil {
		return err
	}
	if s.Key, err = dp.GetString("key"); err != nil {
		return err
	}
	if s.Enabled && (s.Certificate == "" || s.Key == "") {
		return dp.WrapKeyErr("key", errors.New("both cert and key should be set"))
	}
	return nil
}

func (e *EventsConfig) set(dp config.DataProvider) (err error) {
	if e.BufferSize, err = dp.GetInt("bufferSize"); err != nil {
		return err
	}
	if e.BufferSize <= 0 {
		return dp.WrapKeyErr("bufferSize", errors.New("must be positive"))
	}
	return nil
}
