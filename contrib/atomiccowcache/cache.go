package atomiccowcache

import (
	"sync"
	"sync/atomic"
)

// Cache memoizes values built from a key.  Reads of keys which were already
// built take no locks: the read path uses an immutable snapshot which is
// replaced wholesale whenever a new key is added.  It suits small key sets
// that are read on every operation, such as telemetry attribute sets.
type Cache[K comparable, V any] struct {
	build func(K) V

	snapshot  atomic.Pointer[map[K]V]
	writeLock sync.Mutex
}

func NewCache[K comparable, V any](build func(K) V) *Cache[K, V] {
	c := &Cache[K, V]{
		build: build,
	}
	empty := make(map[K]V)
	c.snapshot.Store(&empty)
	return c
}

func (c *Cache[K, V]) Get(k K) V {
	if v, ok := (*c.snapshot.Load())[k]; ok {
		return v
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	current := *c.snapshot.Load()
	if v, ok := current[k]; ok {
		return v
	}

	v := c.build(k)

	next := make(map[K]V, len(current)+1)
	for ek, ev := range current {
		next[ek] = ev
	}
	next[k] = v
	c.snapshot.Store(&next)

	return v
}

func (c *Cache[K, V]) Len() int {
	return len(*c.snapshot.Load())
}
