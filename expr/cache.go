package expr

import (
	"log/slog"
	"slices"

	"github.com/cottand/symdag/value"
	"github.com/hashicorp/golang-lru/simplelru"
)

// cacheEntry remembers a successful factoring of the normalized sum key:
// key = scale·replacement. Sums that could not be factored are not stored,
// their node carries flagNormalized instead.
type cacheEntry struct {
	key         *Node
	replacement *Node
	scale       value.Value
	evicted     bool
}

// subexprCache maps normalized sums, by node identity, to their factored
// form. An entry lives only as long as its replacement: the key is held,
// the replacement is not and carries flagTracked, so destroying the last
// handle to a factored result drops the entry and with it the key.
type subexprCache struct {
	s      *Session
	lru    *simplelru.LRU
	logger *slog.Logger

	// keys of the entries whose replacement is a given node
	byReplacement map[uint64][]uint64

	hits, misses, stores uint64
}

func newSubexprCache(s *Session, capacity int) *subexprCache {
	c := &subexprCache{
		s:             s,
		logger:        s.baseLogger.With("section", "cse.cache"),
		byReplacement: map[uint64][]uint64{},
	}
	if capacity <= 0 {
		return c
	}
	lru, err := simplelru.NewLRU(capacity, c.onEvict)
	if err != nil {
		invariantf("creating subexpression cache: %v", err)
	}
	c.lru = lru
	return c
}

func (c *subexprCache) onEvict(_, v interface{}) {
	e := v.(*cacheEntry)
	if e.evicted {
		return
	}
	e.evicted = true

	rep := e.replacement
	keys := slices.DeleteFunc(c.byReplacement[rep.id], func(id uint64) bool { return id == e.key.id })
	if len(keys) == 0 {
		delete(c.byReplacement, rep.id)
		rep.flags &^= flagTracked
	} else {
		c.byReplacement[rep.id] = keys
	}
	c.s.release(e.key)
}

func (c *subexprCache) lookup(key *Node) (*cacheEntry, bool) {
	if c.lru == nil {
		return nil, false
	}
	v, ok := c.lru.Get(key.id)
	if !ok {
		c.misses++
		return nil, false
	}
	e := v.(*cacheEntry)
	if e.key != key || e.replacement.has(flagDying) {
		invariantf("stale cache entry for %d: key %d, replacement %d", key.id, e.key.id, e.replacement.id)
	}
	c.hits++
	return e, true
}

func (c *subexprCache) store(key, replacement *Node, scale value.Value) {
	if c.lru == nil || c.lru.Contains(key.id) {
		return
	}
	e := &cacheEntry{key: c.s.retain(key), replacement: replacement, scale: scale}
	replacement.flags |= flagTracked
	c.byReplacement[replacement.id] = append(c.byReplacement[replacement.id], key.id)
	c.stores++
	if c.lru.Add(key.id, e) {
		c.logger.Debug("evicted oldest factorization", "entries", c.lru.Len())
	}
}

// forget drops the entries whose replacement is being destroyed.
func (c *subexprCache) forget(n *Node) {
	if c.lru == nil {
		return
	}
	for _, id := range slices.Clone(c.byReplacement[n.id]) {
		c.lru.Remove(id)
	}
}

func (c *subexprCache) clear() {
	if c.lru != nil {
		c.lru.Purge()
	}
}

func (c *subexprCache) len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}
