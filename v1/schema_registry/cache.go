package schema_registry

import "sync"

// Cache maps subjects to their latest registry id and registry ids to parsed schemas.
//
// Cache is a plain key-value store. It does not fetch anything and does not
// coalesce concurrent misses; the Registry does that. The mutex only protects the
// maps against concurrent goroutines.
type Cache struct {
	mu        sync.RWMutex
	latestIDs map[string]int
	schemas   map[int]ParsedSchema
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		latestIDs: make(map[string]int),
		schemas:   make(map[int]ParsedSchema),
	}
}

// GetLatestRegistryID returns the last id stored for subject.
func (c *Cache) GetLatestRegistryID(subject string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.latestIDs[subject]
	return id, ok
}

// SetLatestRegistryID stores id as the latest id of subject. Last write wins.
func (c *Cache) SetLatestRegistryID(subject string, id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latestIDs[subject] = id
}

// GetSchema returns the parsed schema stored for id.
func (c *Cache) GetSchema(id int) (ParsedSchema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.schemas[id]
	return s, ok
}

// SetSchema stores schema under id and returns it.
func (c *Cache) SetSchema(id int, schema ParsedSchema) ParsedSchema {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schemas[id] = schema
	return schema
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latestIDs = make(map[string]int)
	c.schemas = make(map[int]ParsedSchema)
}

// Len returns the number of cached schemas.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.schemas)
}
