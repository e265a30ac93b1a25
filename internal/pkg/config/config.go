// Package config abstracts runtime configuration behind typed getters, so
// callers never deal with raw string values or the backing store.
package config

import (
	"io"
	"time"
)

// Config retrieves configuration values of various types. Implementations
// handle missing keys and conversion failures by returning zero values.
type Config interface {
	io.Closer

	// GetString returns the value for key as a string.
	GetString(key string) string

	// GetBool returns the value for key as a bool.
	GetBool(key string) bool

	// GetInt returns the value for key as an int.
	GetInt(key string) int

	// GetInt64 returns the value for key as an int64.
	GetInt64(key string) int64

	// GetUint returns the value for key as a uint.
	GetUint(key string) uint

	// GetUint16 returns the value for key as a uint16.
	GetUint16(key string) uint16

	// GetFloat64 returns the value for key as a float64.
	GetFloat64(key string) float64

	// GetSecond interprets the value for key as a count of seconds.
	GetSecond(key string) time.Duration

	// GetMinute interprets the value for key as a count of minutes.
	GetMinute(key string) time.Duration

	// GetHour interprets the value for key as a count of hours.
	GetHour(key string) time.Duration

	// GetBinary returns the value for key decoded from base64.
	GetBinary(key string) []byte

	// GetArray returns the value for key split on commas.
	GetArray(key string) []string

	// GetMap returns the value for key parsed from "k1:v1,k2:v2" pairs.
	GetMap(key string) map[string]string
}
