package cache

import (
	"log/slog"
	"time"

	"github.com/starford/docctx/internal/index"
)

// DefaultWorkers bounds parallel loading and fingerprinting.
const DefaultWorkers = 8

// DefaultIndexName is the file name that marks an index document.
const DefaultIndexName = "index.md"

// Option configures a Cache.
type Option func(*Cache)

// WithWorkers sets the size of the worker pool. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets the logger used for load warnings and diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIndexName overrides the index document file name.
func WithIndexName(name string) Option {
	return func(c *Cache) {
		if name != "" {
			c.indexName = name
		}
	}
}

// WithFingerprintIndex enables the persistent fingerprint memo.
func WithFingerprintIndex(idx index.FingerprintIndex) Option {
	return func(c *Cache) { c.fpIndex = idx }
}

// WithClock sets the time source used for the updated date on sync.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}
