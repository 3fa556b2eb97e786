/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"fmt"
	"strings"

	"github.com/acronis/go-busy/config"
)

const cfgDefaultKeyPrefix = "log"

// Format is a format of log entries.
type Format string

// Log formats.
const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Output is a destination of log entries.
type Output string

// Log outputs.
const (
	OutputStdout Output = "stdout"
	OutputStderr Output = "stderr"
	OutputFile   Output = "file"
)

// Rotation limits.
const (
	DefaultFileRotationMaxSizeBytes = 250 << 20
	MinFileRotationMaxSizeBytes     = 1 << 20
	DefaultFileRotationMaxBackups   = 10
)

// Config is a logging configuration.
//
//	log:
//	  level: info        # debug, info, warn or error
//	  format: json       # json or text
//	  output: stdout     # stdout, stderr or file
//	  nocolor: false     # text format only
//	  addCaller: false
//	  file:
//	    path: /var/log/busymon-{{pid}}.log
//	    rotation: {maxSize: 250M, maxBackups: 10, maxAgeDays: 0, compress: false}
type Config struct {
	Level     Level      `mapstructure:"level" yaml:"level" json:"level"`
	Format    Format     `mapstructure:"format" yaml:"format" json:"format"`
	Output    Output     `mapstructure:"output" yaml:"output" json:"output"`
	NoColor   bool       `mapstructure:"nocolor" yaml:"nocolor" json:"nocolor"`
	AddCaller bool       `mapstructure:"addCaller" yaml:"addCaller" json:"addCaller"`
	File      FileConfig `mapstructure:"file" yaml:"file" json:"file"`

	keyPrefix string
}

// FileConfig is a configuration of the file output.
type FileConfig struct {
	Path     string         `mapstructure:"path" yaml:"path" json:"path"`
	Rotation RotationConfig `mapstructure:"rotation" yaml:"rotation" json:"rotation"`
}

// RotationConfig is a configuration of log file rotation.
type RotationConfig struct {
	MaxSize    config.ByteSize `mapstructure:"maxSize" yaml:"maxSize" json:"maxSize"`
	MaxBackups int             `mapstructure:"maxBackups" yaml:"maxBackups" json:"maxBackups"`
	MaxAgeDays int             `mapstructure:"maxAgeDays" yaml:"maxAgeDays" json:"maxAgeDays"`
	Compress   bool            `mapstructure:"compress" yaml:"compress" json:"compress"`
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// ConfigOption is a functional option for NewConfig.
type ConfigOption func(*Config)

// WithKeyPrefix sets the section of the configuration data the logging config is read from.
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

// NewDefaultConfig creates a Config with default values: info level, JSON to stdout.
func NewDefaultConfig(options ...ConfigOption) *Config {
	c := NewConfig(options...)
	c.Level = LevelInfo
	c.Format = FormatJSON
	c.Output = OutputStdout
	c.File.Rotation.MaxSize = DefaultFileRotationMaxSizeBytes
	c.File.Rotation.MaxBackups = DefaultFileRotationMaxBackups
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
	defaults := NewDefaultConfig()
	dp.SetDefault("level", string(defaults.Level))
	dp.SetDefault("format", string(defaults.Format))
	dp.SetDefault("output", string(defaults.Output))
	dp.SetDefault("file.rotation.maxSize", defaults.File.Rotation.MaxSize.String())
	dp.SetDefault("file.rotation.maxBackups", defaults.File.Rotation.MaxBackups)
}

// Set implements config.Config.
func (c *Config) Set(dp config.DataProvider) error {
	level, err := getLowerFromSet(dp, "level", LevelDebug, LevelInfo, LevelWarn, LevelError)
	if err != nil {
		return err
	}
	format, err := getLowerFromSet(dp, "format", FormatJSON, FormatText)
	if err != nil {
		return err
	}
	output, err := getLowerFromSet(dp, "output", OutputStdout, OutputStderr, OutputFile)
	if err != nil {
		return err
	}
	c.Level, c.Format, c.Output = level, format, output

	if c.NoColor, err = dp.GetBool("nocolor"); err != nil {
		return err
	}
	if c.AddCaller, err = dp.GetBool("addCaller"); err != nil {
		return err
	}
	return c.File.set(dp.WithKeyPrefix("file"), c.Output == OutputFile)
}

func (f *FileConfig) set(dp config.DataProvider, required bool) error {
	var err error
	if f.Path, err = dp.GetString("path"); err != nil {
		return err
	}
	if f.Path == "" && required {
		return dp.WrapKeyErr("path", fmt.Errorf("cannot be empty when %q output is used", OutputFile))
	}

	rdp := dp.WithKeyPrefix("rotation")
	r := &f.Rotation
	if r.MaxSize, err = rdp.GetSizeInBytes("maxSize"); err != nil {
		return err
	}
	if r.MaxSize < MinFileRotationMaxSizeBytes {
		return rdp.WrapKeyErr("maxSize", fmt.Errorf("should be >= %s", config.ByteSize(MinFileRotationMaxSizeBytes)))
	}
	if r.MaxBackups, err = rdp.GetInt("maxBackups"); err != nil {
		return err
	}
	if r.MaxBackups < 1 {
		return rdp.WrapKeyErr("maxBackups", fmt.Errorf("should be >= 1"))
	}
	if r.MaxAgeDays, err = rdp.GetInt("maxAgeDays"); err != nil {
		return err
	}
	if r.MaxAgeDays < 0 {
		return rdp.WrapKeyErr("maxAgeDays", fmt.Errorf("should be >= 0"))
	}
	r.Compress, err = rdp.GetBool("compress")
	return err
}

// getLowerFromSet reads a case-insensitive enum value and returns it lower-cased.
func getLowerFromSet[T ~string](dp config.DataProvider, key string, values ...T) (T, error) {
	set := make([]string, len(values))
	for i := range values {
		set[i] = string(values[i])
	}
	s, err := dp.GetStringFromSet(key, set, true)
	return T(strings.ToLower(s)), err
}
