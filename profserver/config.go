/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package profserver

import (
	"errors"

	"github.com/acronis/go-busy/config"
)

const cfgDefaultKeyPrefix = "profServer"

// DefaultAddress is loopback-only: pprof must not be reachable from outside by default.
const DefaultAddress = "127.0.0.1:6060"

// Config configures the pprof server. It's disabled unless explicitly enabled.
//
//	profServer:
//	  enabled: true
//	  address: 127.0.0.1:6060
type Config struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Address string `mapstructure:"address" yaml:"address" json:"address"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// ConfigOption is a functional option for NewConfig.
type ConfigOption func(*Config)

// WithKeyPrefix sets the section of the configuration data the pprof server config is read from.
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

// NewDefaultConfig creates a disabled Config listening on DefaultAddress.
func NewDefaultConfig(options ...ConfigOption) *Config {
	c := NewConfig(options...)
	c.Address = DefaultAddress
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
	dp.SetDefault("enabled", false)
	dp.SetDefault("address", DefaultAddress)
}

// Set implements config.Config.
func (c *Config) Set(dp config.DataProvider) error {
	enabled, err := dp.GetBool("enabled")
	if err != nil {
		return err
	}
	addr, err := dp.GetString("address")
	if err != nil {
		return err
	}
	if enabled && addr == "" {
		return dp.WrapKeyErr("address", errors.New("cannot be empty when profiling server is enabled"))
	}
	c.Enabled, c.Address = enabled, addr
	return nil
}
