/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/acronis/go-busy/busy/presenter"
	"github.com/acronis/go-busy/config"
	"github.com/acronis/go-busy/httpclient"
	"github.com/acronis/go-busy/httpserver"
	"github.com/acronis/go-busy/log"
	"github.com/acronis/go-busy/profserver"
)

const (
	cfgKeyProbeInterval = "interval"
	cfgKeyProbeTargets  = "targets"
	cfgKeyPresenters    = "presenters"

	presenterAttrContent  = "content"
	presenterAttrClasses  = "classes"
	presenterAttrDisabled = "disabled"
)

// DefaultProbeInterval is a default delay between probing iterations.
const DefaultProbeInterval = 10 * time.Second

// ProbeTarget is a single endpoint requested on every probing iteration.
type ProbeTarget struct {
	URL     string `mapstructure:"url" yaml:"url" json:"url"`
	Name    string `mapstructure:"name" yaml:"name" json:"name"`
	Method  string `mapstructure:"method" yaml:"method" json:"method"`
	NotBusy bool   `mapstructure:"notBusy" yaml:"notBusy" json:"notBusy"`
}

// ProbeConfig represents configuration of the prober.
type ProbeConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval" json:"interval"`
	Targets  []ProbeTarget `mapstructure:"targets" yaml:"targets" json:"targets"`
}

var _ config.Config = (*ProbeConfig)(nil)
var _ config.KeyPrefixProvider = (*ProbeConfig)(nil)

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *ProbeConfig) KeyPrefix() string {
	return "probe"
}

// SetProviderDefaults is part of config interface implementation.
func (c *ProbeConfig) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyProbeInterval, DefaultProbeInterval)
}

// Set is part of config interface implementation.
func (c *ProbeConfig) Set(dp config.DataProvider) error {
	interval, err := dp.GetDuration(cfgKeyProbeInterval)
	if err != nil {
		return err
	}
	if interval <= 0 {
		return dp.WrapKeyErr(cfgKeyProbeInterval, errors.New("must be positive"))
	}
	c.Interval = interval

	var targets []ProbeTarget
	if err = dp.UnmarshalKey(cfgKeyProbeTargets, &targets); err != nil {
		return err
	}
	for i := range targets {
		if err = targets[i].normalize(); err != nil {
			return dp.WrapKeyErr(fmt.Sprintf("%s[%d]", cfgKeyProbeTargets, i), err)
		}
	}
	c.Targets = targets

	return nil
}

func (t *ProbeTarget) normalize() error {
	if t.URL == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(t.URL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if t.Method == "" {
		t.Method = http.MethodGet
	}
	t.Method = strings.ToUpper(t.Method)
	return nil
}

// PresenterConfig is an initial presentation and busy options of a single presenter element.
type PresenterConfig struct {
	Content  string
	Classes  string
	Disabled bool
	Options  presenter.Options
}

// PresentersConfig represents named presenter elements.
// Every element is a flat attribute map: content, classes and disabled describe
// the initial presentation, the rest are decoded by presenter.DecodeOptions.
type PresentersConfig struct {
	Elements map[string]PresenterConfig
}

var _ config.Config = (*PresentersConfig)(nil)

// SetProviderDefaults is part of config interface implementation.
func (c *PresentersConfig) SetProviderDefaults(_ config.DataProvider) {}

// Set is part of config interface implementation.
func (c *PresentersConfig) Set(dp config.DataProvider) error {
	if !dp.IsSet(cfgKeyPresenters) {
		return nil
	}
	var raw map[string]map[string]interface{}
	if err := dp.UnmarshalKey(cfgKeyPresenters, &raw); err != nil {
		return err
	}
	c.Elements = make(map[string]PresenterConfig, len(raw))
	for name, attrs := range raw {
		key := cfgKeyPresenters + "." + name
		pc, err := parsePresenterAttrs(attrs)
		if err != nil {
			return dp.WrapKeyErr(key, err)
		}
		c.Elements[name] = pc
	}
	return nil
}

func parsePresenterAttrs(attrs map[string]interface{}) (PresenterConfig, error) {
	var pc PresenterConfig
	var err error
	rest := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		switch strings.ToLower(k) {
		case presenterAttrContent:
			if pc.Content, err = cast.ToStringE(v); err != nil {
				return PresenterConfig{}, fmt.Errorf("%s: %w", presenterAttrContent, err)
			}
		case presenterAttrClasses:
			if pc.Classes, err = castToClasses(v); err != nil {
				return PresenterConfig{}, fmt.Errorf("%s: %w", presenterAttrClasses, err)
			}
		case presenterAttrDisabled:
			if pc.Disabled, err = cast.ToBoolE(v); err != nil {
				return PresenterConfig{}, fmt.Errorf("%s: %w", presenterAttrDisabled, err)
			}
		default:
			rest[k] = v
		}
	}
	if pc.Options, err = presenter.DecodeOptions(rest); err != nil {
		return PresenterConfig{}, err
	}
	return pc, nil
}

// castToClasses accepts both "a b" and ["a", "b"] forms.
func castToClasses(v interface{}) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	list, err := cast.ToStringSliceE(v)
	if err != nil {
		return "", err
	}
	return strings.Join(list, " "), nil
}

// AppConfig is the whole busymon configuration.
type AppConfig struct {
	Log        *log.Config
	Server     *httpserver.Config
	Client     *httpclient.Config
	Probe      *ProbeConfig
	Presenters *PresentersConfig
	ProfServer *profserver.Config
}

// NewAppConfig creates an empty AppConfig, values are set by config.Loader.
func NewAppConfig() *AppConfig {
	return &AppConfig{
		Log:        log.NewConfig(),
		Server:     httpserver.NewConfig(),
		Client:     httpclient.NewConfigWithKeyPrefix("client"),
		Probe:      &ProbeConfig{},
		Presenters: &PresentersConfig{},
		ProfServer: profserver.NewConfig(),
	}
}

func (c *AppConfig) all() (config.Config, []config.Config) {
	return c.Log, []config.Config{c.Server, c.Client, c.Probe, c.Presenters, c.ProfServer}
}

// LoadAppConfig reads busymon configuration in YAML format.
// Values may be overridden by environment variables with the given prefix (e.g. BUSYMON_SERVER_ADDRESS).
func LoadAppConfig(reader io.Reader, envVarsPrefix string) (*AppConfig, error) {
	cfg := NewAppConfig()
	first, rest := cfg.all()
	if err := config.NewDefaultLoader(envVarsPrefix).LoadFromReader(reader, config.DataTypeYAML, first, rest...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAppConfigFromFile reads busymon configuration from the YAML file.
func LoadAppConfigFromFile(path string, envVarsPrefix string) (*AppConfig, error) {
	f, err := os.Open(path) //nolint:gosec // path is given by the operator
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadAppConfig(f, envVarsPrefix)
}
