package catalog

import (
	"log/slog"
	"time"

	"golang.org/x/text/language"
)

// Defaults applied by New.
const (
	DefaultBatchSize    = 10
	DefaultFlushDelay   = 200 * time.Millisecond
	DefaultFlushRetries = 3
	DefaultCacheSize    = 256
	DefaultCacheTTL     = 30 * time.Second
)

// Option configures a Catalog.
type Option func(*Catalog)

// WithExtractor replaces the default content extractor.
func WithExtractor(e Extractor) Option {
	return func(c *Catalog) {
		if e != nil {
			c.extractor = e
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBatchSize sets how many files are extracted concurrently.
func WithBatchSize(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithKeepScans enables automatic retention after every ingest. 0 disables it.
func WithKeepScans(n int) Option {
	return func(c *Catalog) {
		if n >= 0 {
			c.keepScans = n
		}
	}
}

// WithFlushDelay sets how long ingest writes are coalesced before a save.
func WithFlushDelay(d time.Duration) Option {
	return func(c *Catalog) {
		if d >= 0 {
			c.flushDelay = d
		}
	}
}

// WithFlushRetries sets how often a failed save is attempted before the
// failure is reported on Fatal.
func WithFlushRetries(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.flushRetries = n
		}
	}
}

// WithCache sizes the query cache. size 0 disables it.
func WithCache(size int, ttl time.Duration) Option {
	return func(c *Catalog) {
		c.cacheSize = size
		c.cacheTTL = ttl
	}
}

// WithLocale sets the collation used to order names of equal score.
func WithLocale(tag language.Tag) Option {
	return func(c *Catalog) {
		c.locale = tag
	}
}

// WithSearchLimit sets the result cap used when a caller passes no limit.
func WithSearchLimit(n int) Option {
	return func(c *Catalog) {
		c.searchLimit = n
	}
}

// WithEventCallback registers fn to be called after each mutation.
func WithEventCallback(fn EventCallback) Option {
	return func(c *Catalog) {
		c.onEvent = fn
	}
}

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) {
		if now != nil {
			c.now = now
		}
	}
}
