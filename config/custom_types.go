/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"gopkg.in/yaml.v3"
)

// scalarText returns the text of a JSON string or number.
func scalarText(data []byte) []byte {
	return []byte(strings.Trim(string(data), `"`))
}

// yamlScalarText returns the text of a YAML scalar node.
func yamlScalarText(value *yaml.Node, what string) ([]byte, error) {
	var s string
	if err := value.Decode(&s); err != nil {
		return nil, fmt.Errorf("invalid %s format: %w", what, err)
	}
	return []byte(s), nil
}

// parseNonNegativeInt parses s as a base 10 integer. ok is false if s is not an integer at all.
func parseNonNegativeInt(s string) (num int64, ok bool, err error) {
	num, parseErr := strconv.ParseInt(s, 10, 64)
	if parseErr != nil {
		return 0, false, nil
	}
	if num < 0 {
		return 0, true, fmt.Errorf("negative value is not allowed: %d", num)
	}
	return num, true, nil
}

// ByteSize is a size in bytes, e.g. the events buffer limit or the log file rotation size.
// It's set with an integer or a human-readable string ("42GB", "250Mi").
type ByteSize uint64

// UnmarshalText implements encoding.TextUnmarshaler (mapstructure uses it via TextUnmarshallerHookFunc).
func (b *ByteSize) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	num, isInt, err := parseNonNegativeInt(s)
	if err != nil {
		return err
	}
	if isInt {
		*b = ByteSize(num)
		return nil
	}
	// bytefmt doesn't know the Kubernetes-style "Mi" suffixes, but its "M" means the same.
	v := s
	if len(v) > 2 && strings.HasSuffix(v, "i") && strings.ContainsAny(v[len(v)-2:len(v)-1], "KMGTPE") {
		v = v[:len(v)-1]
	}
	n, err := bytefmt.ToBytes(v)
	if err != nil {
		return fmt.Errorf("invalid byte size format (%s): %w", s, err)
	}
	*b = ByteSize(n)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *ByteSize) UnmarshalJSON(data []byte) error { return b.UnmarshalText(scalarText(data)) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	text, err := yamlScalarText(value, "byte size")
	if err != nil {
		return err
	}
	return b.UnmarshalText(text)
}

// String formats the size with bytefmt, e.g. "250M".
func (b ByteSize) String() string { return bytefmt.ByteSize(uint64(b)) }

// MarshalJSON implements json.Marshaler.
func (b ByteSize) MarshalJSON() ([]byte, error) { return json.Marshal(b.String()) }

// MarshalYAML implements yaml.Marshaler.
func (b ByteSize) MarshalYAML() (interface{}, error) { return b.String(), nil }

// TimeDuration is a duration set with a Go duration string ("1h30m") or an integer number of nanoseconds.
type TimeDuration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *TimeDuration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	num, isInt, err := parseNonNegativeInt(s)
	if err != nil {
		return err
	}
	if isInt {
		*d = TimeDuration(num)
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid time duration format (%s): %w", s, err)
	}
	*d = TimeDuration(dur)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *TimeDuration) UnmarshalJSON(data []byte) error { return d.UnmarshalText(scalarText(data)) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	text, err := yamlScalarText(value, "time duration")
	if err != nil {
		return err
	}
	return d.UnmarshalText(text)
}

// String returns the Go duration string.
func (d TimeDuration) String() string { return time.Duration(d).String() }

// MarshalJSON implements json.Marshaler.
func (d TimeDuration) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

// MarshalYAML implements yaml.Marshaler.
func (d TimeDuration) MarshalYAML() (interface{}, error) { return d.String(), nil }
