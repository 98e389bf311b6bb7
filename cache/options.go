package cache

import (
	"log/slog"
)

// DefaultMaxEntries is the LRU bound used when no option sets one.
const DefaultMaxEntries = 256

// Option configures a Store.
type Option func(*options)

type options struct {
	name       string
	maxEntries int
	logger     *slog.Logger
}

// WithMaxEntries bounds the number of completed entries. The least recently
// used entry is evicted when the bound is exceeded. n <= 0 removes the bound.
//
// Example:
//
//	store := cache.New[Key, Value](cache.WithMaxEntries(64))
func WithMaxEntries(n int) Option {
	return func(opts *options) {
		opts.maxEntries = n
	}
}

// WithUnbounded keeps every completed entry until it is invalidated.
func WithUnbounded() Option {
	return func(opts *options) {
		opts.maxEntries = 0
	}
}

// WithLogger sets the logger for hit, miss and eviction events. Defaults to
// a logger that discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithName labels the store in log output.
func WithName(name string) Option {
	return func(opts *options) {
		opts.name = name
	}
}
