/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
	"time"
)

// DataType is a format of configuration data.
type DataType string

// Supported data formats.
const (
	DataTypeYAML DataType = "yaml"
	DataTypeJSON DataType = "json"
)

// DataProvider gives configuration objects typed access to configuration values.
// Keys are dot-separated paths relative to the provider's key prefix.
// Errors returned by getters already contain the full key.
type DataProvider interface {
	SetDefault(key string, value interface{})
	IsSet(key string) bool

	GetBool(key string) (bool, error)
	GetInt(key string) (int, error)
	GetString(key string) (string, error)
	GetStringFromSet(key string, set []string, ignoreCase bool) (string, error)
	GetStringSlice(key string) ([]string, error)
	GetDuration(key string) (time.Duration, error)
	GetSizeInBytes(key string) (ByteSize, error)

	// UnmarshalKey decodes the value under the key into a struct, a slice or a map.
	UnmarshalKey(key string, rawVal interface{}) error

	// WrapKeyErr adds the full key to the error.
	WrapKeyErr(key string, err error) error

	// WithKeyPrefix returns a provider for the nested section under the prefix.
	WithKeyPrefix(prefix string) DataProvider
}

// DataSource is a DataProvider that reads raw configuration data. Loader fills it before loading configs.
type DataSource interface {
	DataProvider
	ReadFile(path string, dataType DataType) error
	Read(reader io.Reader, dataType DataType) error
}

// WrapKeyErr adds the key to the error message.
func WrapKeyErr(key string, err error) error {
	return fmt.Errorf("%s: %w", key, err)
}
