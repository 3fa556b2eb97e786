/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ViperAdapter is a DataSource backed by viper.
// Adapters returned by WithKeyPrefix share the same viper instance.
type ViperAdapter struct {
	viper  *viper.Viper
	prefix string
}

var _ DataSource = (*ViperAdapter)(nil)

// NewViperAdapter creates a new ViperAdapter.
func NewViperAdapter() *ViperAdapter {
	return &ViperAdapter{viper: viper.New()}
}

// UseEnvVars makes values of environment variables with the given prefix override configuration data.
func (va *ViperAdapter) UseEnvVars(prefix string) *ViperAdapter {
	va.viper.SetEnvPrefix(prefix)
	va.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	va.viper.AutomaticEnv()
	return va
}

// ReadFile implements DataSource.
func (va *ViperAdapter) ReadFile(path string, dataType DataType) error {
	va.viper.SetConfigType(string(dataType))
	va.viper.SetConfigFile(path)
	return va.viper.ReadInConfig()
}

// Read implements DataSource.
func (va *ViperAdapter) Read(reader io.Reader, dataType DataType) error {
	va.viper.SetConfigType(string(dataType))
	return va.viper.ReadConfig(reader)
}

// WithKeyPrefix implements DataProvider.
func (va *ViperAdapter) WithKeyPrefix(prefix string) DataProvider {
	return &ViperAdapter{viper: va.viper, prefix: va.fullKey(prefix)}
}

func (va *ViperAdapter) fullKey(key string) string {
	return strings.Trim(va.prefix+"."+key, ".")
}

// SetDefault implements DataProvider. Defaults are used when neither data nor environment has the key.
func (va *ViperAdapter) SetDefault(key string, value interface{}) {
	va.viper.SetDefault(va.fullKey(key), value)
}

// IsSet implements DataProvider.
func (va *ViperAdapter) IsSet(key string) bool {
	return va.viper.IsSet(va.fullKey(key))
}

// WrapKeyErr implements DataProvider.
func (va *ViperAdapter) WrapKeyErr(key string, err error) error {
	return WrapKeyErr(va.fullKey(key), err)
}

// getAs converts the value under the key. A missing key gives the zero value.
func getAs[T any](va *ViperAdapter, key string, convert func(interface{}) (T, error)) (T, error) {
	var zero T
	val := va.viper.Get(va.fullKey(key))
	if val == nil {
		return zero, nil
	}
	res, err := convert(val)
	if err != nil {
		return zero, va.WrapKeyErr(key, err)
	}
	return res, nil
}

// GetBool implements DataProvider.
func (va *ViperAdapter) GetBool(key string) (bool, error) { return getAs(va, key, cast.ToBoolE) }

// GetInt implements DataProvider.
func (va *ViperAdapter) GetInt(key string) (int, error) { return getAs(va, key, cast.ToIntE) }

// GetString implements DataProvider.
func (va *ViperAdapter) GetString(key string) (string, error) { return getAs(va, key, cast.ToStringE) }

// GetStringSlice implements DataProvider.
func (va *ViperAdapter) GetStringSlice(key string) ([]string, error) {
	return getAs(va, key, cast.ToStringSliceE)
}

// GetDuration implements DataProvider. Both "1m30s" strings and integer nanoseconds are accepted.
func (va *ViperAdapter) GetDuration(key string) (time.Duration, error) {
	return getAs(va, key, cast.ToDurationE)
}

// GetSizeInBytes implements DataProvider. Both integers and strings like "250M" or "1Gi" are accepted.
func (va *ViperAdapter) GetSizeInBytes(key string) (ByteSize, error) {
	return getAs(va, key, func(val interface{}) (ByteSize, error) {
		if s, ok := val.(string); ok {
			var b ByteSize
			if s == "" {
				return 0, nil
			}
			err := b.UnmarshalText([]byte(s))
			return b, err
		}
		num, err := cast.ToInt64E(val)
		if err != nil {
			return 0, err
		}
		if num < 0 {
			return 0, fmt.Errorf("negative value is not allowed: %d", num)
		}
		return ByteSize(num), nil
	})
}

// GetStringFromSet implements DataProvider.
func (va *ViperAdapter) GetStringFromSet(key string, set []string, ignoreCase bool) (string, error) {
	str, err := va.GetString(key)
	if err != nil {
		return "", err
	}
	for _, s := range set {
		if str == s || (ignoreCase && strings.EqualFold(str, s)) {
			return str, nil
		}
	}
	return "", va.WrapKeyErr(key, fmt.Errorf("unknown value %q, should be one of %v", str, set))
}

// UnmarshalKey implements DataProvider.
// ByteSize and TimeDuration fields may be set with human-readable strings, string slices with comma-separated lists.
func (va *ViperAdapter) UnmarshalKey(key string, rawVal interface{}) error {
	err := va.viper.UnmarshalKey(va.fullKey(key), rawVal, func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return va.WrapKeyErr(key, err)
	}
	return nil
}
