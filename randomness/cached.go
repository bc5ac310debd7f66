package randomness

import (
	"context"

	"candle/trc"
)

// CachedProvider remembers beacon values by round. A round's value never
// changes once published, so entries never go stale.
type CachedProvider struct {
	Provider

	cache *ringCache[uint64, []byte]
}

var _ Provider = (*CachedProvider)(nil)

func WithRingCache(p Provider, capacity int) *CachedProvider {
	return &CachedProvider{
		Provider: p,
		cache:    newRingCache[uint64, []byte](capacity),
	}
}

func (c *CachedProvider) Randomness(ctx context.Context, round uint64) ([]byte, error) {
	v, hit, err := c.cache.Get(ctx, round, c.Provider.Randomness)
	trc.Tracef(ctx, "randomness cache round %d hit=%v", round, hit)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), v...), nil
}
