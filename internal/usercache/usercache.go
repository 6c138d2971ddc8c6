// Package usercache memoises platform account lookups for the duration of a
// single pass. Negative answers are cached too, so a login that does not
// exist costs one request no matter how many identities map to it.
package usercache

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/platform"
)

// Cache wraps go-cache around a platform.Users implementation.
type Cache struct {
	users  platform.Users
	store  *gocache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	user   platform.User
	exists bool
}

// New creates a cache in front of users. A zero ttl keeps entries for the
// lifetime of the cache.
func New(users platform.Users, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &Cache{
		users: users,
		store: gocache.New(ttl, 0),
	}
}

func key(login string) string {
	return strings.ToLower(login)
}

// Lookup returns the account for login. exists is false when the platform
// reports the account as not found; any other failure is returned as an
// error and not cached.
func (c *Cache) Lookup(ctx context.Context, login string) (user platform.User, exists bool, err error) {
	if v, ok := c.store.Get(key(login)); ok {
		c.hits.Add(1)
		e := v.(entry)
		return e.user, e.exists, nil
	}
	c.misses.Add(1)

	u, err := c.users.GetUser(ctx, login)
	switch {
	case err == nil:
		c.store.Set(key(login), entry{user: u, exists: true}, gocache.DefaultExpiration)
		return u, true, nil
	case errors.IsNotFound(err):
		c.store.Set(key(login), entry{}, gocache.DefaultExpiration)
		return platform.User{}, false, nil
	default:
		return platform.User{}, false, err
	}
}

// Exists reports whether login names an existing account.
func (c *Cache) Exists(ctx context.Context, login string) (bool, error) {
	_, ok, err := c.Lookup(ctx, login)
	return ok, err
}

// Seed records accounts already known to exist, typically from a member
// listing.
func (c *Cache) Seed(users ...platform.User) {
	for _, u := range users {
		c.store.Set(key(u.Login), entry{user: u, exists: true}, gocache.DefaultExpiration)
	}
}

// Stats describes cache usage.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Stats returns current cache statistics.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries: c.store.ItemCount(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
