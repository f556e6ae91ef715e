package txcache

import "sync"

// Cache is a transaction-scoped memoization layer over catalog lookups.
// It has exactly the lifetime of the transaction that owns it: a fresh
// Cache is created per transaction and discarded on commit/cancel, so
// stale entries never leak across transactions (spec §4.4).
//
// Internally it is two-level: a hot path keyed by the flattened Key (cheap
// hash lookup) and an index from Lookup kind to the set of flattened keys
// currently cached at that kind, so Invalidate can enumerate candidates
// without scanning every entry.
type Cache struct {
	mu      sync.Mutex
	entries map[flatKey]any
	byKind  map[Lookup]map[flatKey]Key
}

type flatKey string

func flatten(k Key) flatKey {
	b := make([]byte, 0, 32)
	b = append(b, byte(k.Lookup))
	for i := uint8(0); i < k.depth; i++ {
		b = append(b, k.Path[i]...)
		b = append(b, 0)
	}
	return flatKey(b)
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{
		entries: make(map[flatKey]any),
		byKind:  make(map[Lookup]map[flatKey]Key),
	}
}

// Get returns the cached value for k, if present.
func (c *Cache) Get(k Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[flatten(k)]
	return v, ok
}

// Set stores value under k, overwriting any previous entry.
func (c *Cache) Set(k Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fk := flatten(k)
	c.entries[fk] = value
	if c.byKind[k.Lookup] == nil {
		c.byKind[k.Lookup] = make(map[flatKey]Key)
	}
	c.byKind[k.Lookup][fk] = k
}

// GetOrLoad returns the cached value for k, loading and caching it via load
// on a miss. load is called at most once per distinct k while it has not
// been invalidated.
func (c *Cache) GetOrLoad(k Key, load func() (any, error)) (any, error) {
	if v, ok := c.Get(k); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return nil, err
	}
	c.Set(k, v)
	return v, nil
}

// Invalidate drops every cache entry a mutation at k could have affected:
// k itself, any entry nested under it (e.g. invalidating a table drops its
// cached fields/indexes), and any entry that named k as part of its own
// disambiguating path (spec §4.4 "invalidation on schema mutation").
func (c *Cache) Invalidate(k Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, byFlat := range c.byKind {
		for fk, cached := range byFlat {
			if cached.affectedBy(k) {
				delete(c.entries, fk)
				delete(byFlat, fk)
			}
		}
	}
}

// Clear drops every cached entry, used when a transaction's write set
// touches so much catalog state that selective invalidation isn't worth
// computing (e.g. a bulk schema import).
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[flatKey]any)
	c.byKind = make(map[Lookup]map[flatKey]Key)
}
