package providers

import (
	"strconv"
	"unsafe"

	"fpledger/internal/structures"

	"github.com/coocood/freecache"
	"go.uber.org/atomic"
)

// CacheProviderInterface caches rendered read responses. Invalidate drops
// every entry written before the call; it is invoked after each ledger write.
//
// Get returns the generation it looked under. A caller that computes the value
// on a miss must pass that generation back to Set, so a result computed before
// an Invalidate is never stored as current.
type CacheProviderInterface interface {
	Get(key string) (value []byte, generation uint64, ok bool)
	Set(generation uint64, key string, value []byte)
	Invalidate()
}

type CacheProvider struct {
	cache      *freecache.Cache
	ttl        int
	generation atomic.Uint64
}

func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Cache disabled")
		return &noopCache{}
	}

	sizeBytes := conf.Cache.Size * 1024 * 1024
	ttl := max(int(conf.Cache.TTL.Seconds()), 1)

	logger.Infof(TypeApp, "Cache initialized: %dMB, TTL=%ds", conf.Cache.Size, ttl)

	return &CacheProvider{
		cache: freecache.NewCache(sizeBytes),
		ttl:   ttl,
	}
}

// unsafeStringToBytes converts string to []byte without allocation.
// The result must stay read-only; freecache copies keys internally.
func unsafeStringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// versioned prefixes key with a generation so entries from before the last
// Invalidate are never hit again and simply age out.
func versioned(generation uint64, key string) []byte {
	return unsafeStringToBytes(strconv.FormatUint(generation, 10) + "|" + key)
}

func (c *CacheProvider) Get(key string) ([]byte, uint64, bool) {
	gen := c.generation.Load()
	val, err := c.cache.Get(versioned(gen, key))
	if err != nil {
		return nil, gen, false
	}
	return val, gen, true
}

// Set stores value under generation. Stale generations are dropped; one that
// goes stale during the write lands under its old prefix and is never read.
func (c *CacheProvider) Set(generation uint64, key string, value []byte) {
	if generation != c.generation.Load() {
		return
	}
	_ = c.cache.Set(versioned(generation, key), value, c.ttl)
}

func (c *CacheProvider) Invalidate() {
	c.generation.Inc()
}

type noopCache struct{}

func (n *noopCache) Get(_ string) ([]byte, uint64, bool) { return nil, 0, false }
func (n *noopCache) Set(_ uint64, _ string, _ []byte)    {}
func (n *noopCache) Invalidate()                         {}
