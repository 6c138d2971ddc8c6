package attribution

import (
	"github.com/agentstation/teamsync/pkg/identity"
	"github.com/agentstation/teamsync/pkg/sets"
)

// Cache is the persistent e-mail to login record of resolved contributors.
// Every Record rewrites the backing file, so an interrupted run loses at most
// the resolution in flight.
type Cache struct {
	path    string
	entries *identity.Map
}

// LoadCache reads the cache at path. A missing file yields an empty cache.
func LoadCache(path string) (*Cache, error) {
	m, err := identity.LoadOrEmpty(path)
	if err != nil {
		return nil, err
	}
	return &Cache{path: path, entries: m}, nil
}

// NewMemoryCache returns a cache that is never written to disk.
func NewMemoryCache(entries map[string]string) *Cache {
	return &Cache{entries: identity.New(entries)}
}

// Path returns the backing file, empty for an in-memory cache.
func (c *Cache) Path() string {
	return c.path
}

// HasLogin reports whether login is already a cached value.
func (c *Cache) HasLogin(login string) bool {
	return len(c.entries.ReverseLookup(login)) > 0
}

// Lookup returns the cached login for an e-mail.
func (c *Cache) Lookup(email string) (string, bool) {
	return c.entries.Lookup(email)
}

// Logins returns every cached login.
func (c *Cache) Logins() sets.Set {
	return c.entries.Image()
}

// Len returns the number of cached e-mails.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Map exposes the cache contents as an identity map.
func (c *Cache) Map() *identity.Map {
	return c.entries
}

// Record stores email -> login and persists the cache.
func (c *Cache) Record(email, login string) error {
	c.entries.Put(email, login)
	if c.path == "" {
		return nil
	}
	return c.entries.Save(c.path)
}
