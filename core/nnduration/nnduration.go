// Package nnduration provides non-negative duration types in configuration objects.
package nnduration

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNegative indicates the input is a negative duration.
var ErrNegative = errors.New("duration cannot be negative")

func parse(input string, unit time.Duration) (uint64, error) {
	input = strings.Trim(input, `"`)
	if d, e := time.ParseDuration(input); e == nil {
		if d < 0 {
			return 0, ErrNegative
		}
		return uint64(d / unit), nil
	}
	return strconv.ParseUint(input, 10, 64)
}

func durationOr(value uint64, unit time.Duration, dflt uint64) time.Duration {
	if value == 0 {
		value = dflt
	}
	return time.Duration(value) * unit
}

// Milliseconds is a duration in milliseconds unit.
// In JSON and YAML, it may be written as a non-negative integer or a string recognized by time.ParseDuration.
type Milliseconds uint64

// Duration converts to time.Duration.
func (d Milliseconds) Duration() time.Duration {
	return time.Duration(d) * time.Millisecond
}

// DurationOr converts to time.Duration, using dflt when d is zero.
func (d Milliseconds) DurationOr(dflt Milliseconds) time.Duration {
	return durationOr(uint64(d), time.Millisecond, uint64(dflt))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Milliseconds) UnmarshalJSON(p []byte) (e error) {
	v, e := parse(string(p), time.Millisecond)
	*d = Milliseconds(v)
	return e
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Milliseconds) UnmarshalYAML(node *yaml.Node) (e error) {
	v, e := parse(node.Value, time.Millisecond)
	*d = Milliseconds(v)
	return e
}

// Microseconds is a duration in microseconds unit.
// In JSON and YAML, it may be written as a non-negative integer or a string recognized by time.ParseDuration.
type Microseconds uint64

// Duration converts to time.Duration.
func (d Microseconds) Duration() time.Duration {
	return time.Duration(d) * time.Microsecond
}

// DurationOr converts to time.Duration, using dflt when d is zero.
func (d Microseconds) DurationOr(dflt Microseconds) time.Duration {
	return durationOr(uint64(d), time.Microsecond, uint64(dflt))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Microseconds) UnmarshalJSON(p []byte) (e error) {
	v, e := parse(string(p), time.Microsecond)
	*d = Microseconds(v)
	return e
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Microseconds) UnmarshalYAML(node *yaml.Node) (e error) {
	v, e := parse(node.Value, time.Microsecond)
	*d = Microseconds(v)
	return e
}

// Nanoseconds is a duration in nanoseconds unit.
// In JSON and YAML, it may be written as a non-negative integer or a string recognized by time.ParseDuration.
type Nanoseconds uint64

// Duration converts to time.Duration.
func (d Nanoseconds) Duration() time.Duration {
	return time.Duration(d)
}

// DurationOr converts to time.Duration, using dflt when d is zero.
func (d Nanoseconds) DurationOr(dflt Nanoseconds) time.Duration {
	return durationOr(uint64(d), time.Nanosecond, uint64(dflt))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Nanoseconds) UnmarshalJSON(p []byte) (e error) {
	v, e := parse(string(p), time.Nanosecond)
	*d = Nanoseconds(v)
	return e
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Nanoseconds) UnmarshalYAML(node *yaml.Node) (e error) {
	v, e := parse(node.Value, time.Nanosecond)
	*d = Nanoseconds(v)
	return e
}
