/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package config loads configuration from files, readers and environment variables
// into objects implementing Config interface.
package config

// Config is implemented by configuration objects that Loader fills.
// Loader calls SetProviderDefaults for every object first, and only then Set,
// so an object may rely on defaults registered by another one.
type Config interface {
	SetProviderDefaults(dp DataProvider)
	Set(dp DataProvider) error
}

// KeyPrefixProvider is implemented by configs living in a nested section (e.g. "server" or "probe").
type KeyPrefixProvider interface {
	KeyPrefix() string
}

func dataProviderFor(c Config, dp DataProvider) DataProvider {
	if kp, ok := c.(KeyPrefixProvider); ok && kp.KeyPrefix() != "" {
		return dp.WithKeyPrefix(kp.KeyPrefix())
	}
	return dp
}
