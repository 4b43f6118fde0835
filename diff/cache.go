package diff

import (
	"github.com/entdef/entdef/entity"
)

// Cache memoizes classification results for one engine run; Run constructs a
// fresh one so nothing survives into the next invocation. The key is the
// entity's identity plus its normalized definition text, so an entity whose
// declared definition changed between lookups misses rather than returning a
// stale result.
type Cache struct {
	entries map[string]cacheEntry
	hits    int
	misses  int
}

type cacheEntry struct {
	op               Op
	renderedIdentity string
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

func (c *Cache) key(e entity.Entity) string {
	return e.Identity() + "|" + entity.NormalizeWhitespace(e.Definition())
}

// Get returns the cached op and database-rendered identity for e. A nil op
// with ok true means the entity was previously classified as unchanged.
func (c *Cache) Get(e entity.Entity) (Op, string, bool) {
	cached, ok := c.entries[c.key(e)]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return cached.op, cached.renderedIdentity, ok
}

func (c *Cache) Put(e entity.Entity, op Op, renderedIdentity string) {
	c.entries[c.key(e)] = cacheEntry{op: op, renderedIdentity: renderedIdentity}
}

func (c *Cache) Hits() int   { return c.hits }
func (c *Cache) Misses() int { return c.misses }
