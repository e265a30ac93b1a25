// Package uid provides identifier generators used across the service.
package uid

// NumberID generates int64 identifiers suitable for primary keys.
type NumberID interface {
	Generate() int64
}

// StringID generates opaque string identifiers (correlation ids, tokens).
type StringID interface {
	Generate() string
}
