package cache

// Option applies a configuration option to the ResultCache.
type Option func(*ResultCache)

// WithSize sets the maximum number of cached entries.
func WithSize(size int) Option {
	return func(c *ResultCache) {
		c.size = size
	}
}
