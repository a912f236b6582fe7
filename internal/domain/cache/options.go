package cache

type config struct {
	maxSize int
}

// Option configures a cache.
type Option func(*config)

// WithMaxSize sets the maximum number of entries.
// If maxSize > 0: bounded mode with oldest-first eviction.
// If maxSize <= 0: unbounded mode.
func WithMaxSize(maxSize int) Option {
	return func(c *config) {
		c.maxSize = maxSize
	}
}
