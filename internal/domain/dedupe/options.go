package dedupe

// Option applies a configuration option to the in-memory collector.
type Option func(*inMemoryCollector)

// WithCapacity pre-sizes the identity map.
func WithCapacity(n int) Option {
	return func(c *inMemoryCollector) {
		if n > 0 {
			c.capacity = n
		}
	}
}
