/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import "io"

// Loader reads configuration data into a DataSource and fills configuration objects from it.
type Loader struct {
	Source DataSource
}

// NewDefaultLoader creates a viper-based Loader. Values may be overridden by environment variables
// named as upper-cased keys with the prefix, e.g. BUSYMON_SERVER_ADDRESS for "server.address".
func NewDefaultLoader(envVarsPrefix string) *Loader {
	return NewLoader(NewViperAdapter().UseEnvVars(envVarsPrefix))
}

// NewLoader creates a new Loader.
func NewLoader(src DataSource) *Loader {
	return &Loader{Source: src}
}

// LoadFromFile reads the file and fills all passed configs.
func (l *Loader) LoadFromFile(path string, dataType DataType, cfg Config, cfgs ...Config) error {
	if err := l.Source.ReadFile(path, dataType); err != nil {
		return err
	}
	return l.fill(append([]Config{cfg}, cfgs...))
}

// LoadFromReader reads the data and fills all passed configs.
func (l *Loader) LoadFromReader(reader io.Reader, dataType DataType, cfg Config, cfgs ...Config) error {
	if err := l.Source.Read(reader, dataType); err != nil {
		return err
	}
	return l.fill(append([]Config{cfg}, cfgs...))
}

func (l *Loader) fill(cfgs []Config) error {
	dps := make([]DataProvider, len(cfgs))
	for i, cfg := range cfgs {
		dps[i] = dataProviderFor(cfg, l.Source)
		cfg.SetProviderDefaults(dps[i])
	}
	for i, cfg := range cfgs {
		if err := cfg.Set(dps[i]); err != nil {
			return err
		}
	}
	return nil
}
