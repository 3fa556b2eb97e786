/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"fmt"
	"strings"
	"time"

	"github.com/acronis/go-busy/config"
)

// DefaultClientWaitTimeout limits a whole outgoing call, redirects included.
const DefaultClientWaitTimeout = 10 * time.Second

// Config configures the HTTP client created by New.
//
//	client:
//	  timeout: 10s
//	  busy: {enabled: true, completeOn: body}    # body or headers
//	  logger: {enabled: true, mode: failed, slowRequestThreshold: 1s}
//	  metrics: {enabled: true}
type Config struct {
	Busy    BusyConfig    `mapstructure:"busy" yaml:"busy" json:"busy"`
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger" json:"logger"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`

	keyPrefix string
}

// BusyConfig configures tracking of outgoing requests in the busy tracker.
type BusyConfig struct {
	Enabled    bool         `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	CompleteOn CompleteMode `mapstructure:"completeOn" yaml:"completeOn" json:"completeOn"`
}

// LoggerConfig configures logging of outgoing requests. Other fields are ignored when it's disabled.
type LoggerConfig struct {
	Enabled              bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	SlowRequestThreshold time.Duration `mapstructure:"slowRequestThreshold" yaml:"slowRequestThreshold" json:"slowRequestThreshold"`
	Mode                 LoggingMode   `mapstructure:"mode" yaml:"mode" json:"mode"`
}

// MetricsConfig configures Prometheus metrics of outgoing requests.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates an empty Config read from the root of the configuration data.
func NewConfig() *Config {
	return NewConfigWithKeyPrefix("")
}

// NewConfigWithKeyPrefix creates an empty Config read from the given section.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a Config with busy tracking enabled, completed on body.
func NewDefaultConfig() *Config {
	return &Config{
		Busy:    BusyConfig{Enabled: true, CompleteOn: CompleteOnBody},
		Timeout: DefaultClientWaitTimeout,
	}
}

// KeyPrefix implements config.KeyPrefixProvider.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults implements config.Config.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault("timeout", DefaultClientWaitTimeout)
	dp.SetDefault("busy.enabled", true)
	dp.SetDefault("busy.completeOn", string(CompleteOnBody))
	dp.SetDefault("logger.mode", string(LoggingModeAll))
}

// Set implements config.Config.
func (c *Config) Set(dp config.DataProvider) error {
	timeout, err := getNonNegativeDuration(dp, "timeout")
	if err != nil {
		return err
	}
	var cfg Config
	if err = cfg.Busy.set(dp.WithKeyPrefix("busy")); err != nil {
		return err
	}
	if err = cfg.Logger.set(dp.WithKeyPrefix("logger")); err != nil {
		return err
	}
	if cfg.Metrics.Enabled, err = dp.GetBool("metrics.enabled"); err != nil {
		return err
	}
	c.Busy, c.Logger, c.Metrics, c.Timeout = cfg.Busy, cfg.Logger, cfg.Metrics, timeout
	return nil
}

func (c *BusyConfig) set(dp config.DataProvider) error {
	var err error
	if c.Enabled, err = dp.GetBool("enabled"); err != nil {
		return err
	}
	completeOn, err := dp.GetStringFromSet("completeOn", []string{string(CompleteOnBody), string(CompleteOnHeaders)}, true)
	c.CompleteOn = CompleteMode(strings.ToLower(completeOn))
	return err
}

// TransportOpts converts the config to BusyRoundTripper options.
func (c *BusyConfig) TransportOpts() BusyRoundTripperOpts {
	return BusyRoundTripperOpts{CompleteOn: c.CompleteOn}
}

func (c *LoggerConfig) set(dp config.DataProvider) error {
	var err error
	if c.Enabled, err = dp.GetBool("enabled"); err != nil || !c.Enabled {
		return err
	}
	if c.SlowRequestThreshold, err = getNonNegativeDuration(dp, "slowRequestThreshold"); err != nil {
		return err
	}
	mode, err := dp.GetStringFromSet("mode", loggingModes, true)
	c.Mode = LoggingMode(strings.ToLower(mode))
	return err
}

// TransportOpts converts the config to LoggingRoundTripper options.
func (c *LoggerConfig) TransportOpts() LoggingRoundTripperOpts {
	return LoggingRoundTripperOpts{Mode: c.Mode, SlowRequestThreshold: c.SlowRequestThreshold}
}

func getNonNegativeDuration(dp config.DataProvider, key string) (time.Duration, error) {
	d, err := dp.GetDuration(key)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, dp.WrapKeyErr(key, fmt.Errorf("cannot be negative, got %s", d))
	}
	return d, nil
}
