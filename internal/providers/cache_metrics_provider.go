package providers

import "fpledger/internal/structures"

// MetricsCacheProvider counts hits and misses of the wrapped cache.
type MetricsCacheProvider struct {
	inner   CacheProviderInterface
	metrics MetricsProviderInterface
}

func (c *MetricsCacheProvider) Get(key string) ([]byte, uint64, bool) {
	val, gen, ok := c.inner.Get(key)
	if ok {
		c.metrics.IncCacheHits()
	} else {
		c.metrics.IncCacheMisses()
	}
	return val, gen, ok
}

func (c *MetricsCacheProvider) Set(generation uint64, key string, value []byte) {
	c.inner.Set(generation, key, value)
}

func (c *MetricsCacheProvider) Invalidate() {
	c.inner.Invalidate()
	c.metrics.IncCacheInvalidations()
}

// NewInstrumentedCacheProvider wraps the response cache with hit/miss counters.
// A disabled cache is returned unwrapped so it does not report phantom misses.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	inner := NewCacheProvider(conf, logger)
	if _, disabled := inner.(*noopCache); disabled {
		return inner
	}
	return &MetricsCacheProvider{
		inner:   inner,
		metrics: metrics,
	}
}
