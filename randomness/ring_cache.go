package randomness

import (
	"context"
	"sync"
)

// ringCache is a fixed-capacity cache that evicts the oldest inserted key.
// Concurrent Gets for the same key share a single fill. Failed fills are
// not cached.
type ringCache[K comparable, V any] struct {
	mu    sync.Mutex
	index map[K]int // key -> slot
	slots []*ringSlot[K, V]
	next  int
}

type ringSlot[K comparable, V any] struct {
	mu     sync.RWMutex
	key    K
	value  V
	err    error
	filled bool
}

func newRingCache[K comparable, V any](capacity int) *ringCache[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &ringCache[K, V]{
		index: make(map[K]int, capacity),
		slots: make([]*ringSlot[K, V], capacity),
	}
}

func (c *ringCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Get returns the cached value for k, calling fill at most once per
// concurrent burst of misses. The hit result reports whether fill was
// skipped.
func (c *ringCache[K, V]) Get(ctx context.Context, k K, fill func(context.Context, K) (V, error)) (v V, hit bool, err error) {
	slot := c.slot(k)

	slot.mu.RLock()
	if slot.filled {
		v, err = slot.value, slot.err
		slot.mu.RUnlock()
		return v, true, err
	}
	slot.mu.RUnlock()

	slot.mu.Lock()
	if slot.filled { // filled while we waited for the write lock
		v, err = slot.value, slot.err
		slot.mu.Unlock()
		return v, true, err
	}

	slot.value, slot.err = fill(ctx, k)
	slot.filled = true
	v, err = slot.value, slot.err
	slot.mu.Unlock()

	if err != nil {
		c.evict(k, slot)
	}

	return v, false, err
}

func (c *ringCache[K, V]) slot(k K) *ringSlot[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pos, ok := c.index[k]; ok {
		return c.slots[pos]
	}

	if old := c.slots[c.next]; old != nil {
		delete(c.index, old.key)
	}

	slot := &ringSlot[K, V]{key: k}
	c.index[k] = c.next
	c.slots[c.next] = slot
	c.next = (c.next + 1) % len(c.slots)

	return slot
}

// evict removes k, but only if it still maps to the given slot.
func (c *ringCache[K, V]) evict(k K, slot *ringSlot[K, V]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos, ok := c.index[k]
	if !ok || c.slots[pos] != slot {
		return
	}

	c.slots[pos] = nil
	delete(c.index, k)
}
