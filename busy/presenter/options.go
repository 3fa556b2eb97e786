/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package presenter

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/acronis/go-busy/busy"
)

// DefaultBusyText is shown instead of the element content while it's busy.
const DefaultBusyText = "Loading..."

// Options configures a presenter element.
// Class lists are whitespace-separated strings. Empty filter means it's not set.
type Options struct {
	BusyText          string `mapstructure:"busy" json:"busy" yaml:"busy"`
	BusyWhenURL       string `mapstructure:"busyWhenUrl" json:"busyWhenUrl" yaml:"busyWhenUrl"`
	BusyWhenName      string `mapstructure:"busyWhenName" json:"busyWhenName" yaml:"busyWhenName"`
	BusyAddClasses    string `mapstructure:"busyAddClasses" json:"busyAddClasses" yaml:"busyAddClasses"`
	BusyRemoveClasses string `mapstructure:"busyRemoveClasses" json:"busyRemoveClasses" yaml:"busyRemoveClasses"`
	BusyDisabled      bool   `mapstructure:"busyDisabled" json:"busyDisabled" yaml:"busyDisabled"`

	NotBusyWhenURL       string `mapstructure:"notBusyWhenUrl" json:"notBusyWhenUrl" yaml:"notBusyWhenUrl"`
	NotBusyWhenName      string `mapstructure:"notBusyWhenName" json:"notBusyWhenName" yaml:"notBusyWhenName"`
	NotBusyAddClasses    string `mapstructure:"notBusyAddClasses" json:"notBusyAddClasses" yaml:"notBusyAddClasses"`
	NotBusyRemoveClasses string `mapstructure:"notBusyRemoveClasses" json:"notBusyRemoveClasses" yaml:"notBusyRemoveClasses"`
	NotBusyDisabled      bool   `mapstructure:"notBusyDisabled" json:"notBusyDisabled" yaml:"notBusyDisabled"`
}

// DefaultOptions returns options with default values.
func DefaultOptions() Options {
	return Options{BusyText: DefaultBusyText, BusyDisabled: true}
}

// DecodeOptions decodes options from a loosely typed attribute map (e.g. {"busyDisabled": "false"}).
// Missing attributes keep their default values, empty busy text falls back to DefaultBusyText.
func DecodeOptions(attrs map[string]interface{}) (Options, error) {
	opts := DefaultOptions()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return Options{}, fmt.Errorf("create options decoder: %w", err)
	}
	if err = decoder.Decode(attrs); err != nil {
		return Options{}, fmt.Errorf("decode presenter options: %w", err)
	}
	if opts.BusyText == "" {
		opts.BusyText = DefaultBusyText
	}
	return opts, nil
}

// BusyCriteria returns the criteria for becoming busy.
func (o Options) BusyCriteria() busy.MatchCriteria {
	return busy.MatchCriteria{WhenURL: o.BusyWhenURL, WhenName: o.BusyWhenName}
}

// NotBusyCriteria returns the criteria for becoming idle again.
// If no not-busy filter is configured, the busy criteria are used.
func (o Options) NotBusyCriteria() busy.MatchCriteria {
	c := busy.MatchCriteria{WhenURL: o.NotBusyWhenURL, WhenName: o.NotBusyWhenName}
	if c.IsZero() {
		return o.BusyCriteria()
	}
	return c
}
