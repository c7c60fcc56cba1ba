package identitycache

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/cases"
)

// ShowIdentity is the resolved catalog identity of a show.
type ShowIdentity struct {
	ExternalID int64
	Title      string
}

// ResolveFunc performs the uncached resolution for a key.
type ResolveFunc func(ctx context.Context) (ShowIdentity, error)

// Stats counts cache outcomes.
type Stats struct {
	Hits    int
	Misses  int
	Entries int
}

// Cache maps normalized titles to show identities. It is not safe for
// concurrent use; a run is sequential.
type Cache struct {
	entries map[string]ShowIdentity
	fold    cases.Caser
	hits    int
	misses  int
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]ShowIdentity),
		fold:    cases.Fold(),
	}
}

// Key normalizes an encoded title into a cache key.
func (c *Cache) Key(title string) string {
	return c.fold.String(strings.TrimSpace(title))
}

// Resolve returns the cached identity for title or calls fn once to obtain
// it. Failed resolutions are not cached, so the next file of the same show
// resolves again.
func (c *Cache) Resolve(ctx context.Context, title string, fn ResolveFunc) (ShowIdentity, bool, error) {
	key := c.Key(title)
	if key == "" {
		return ShowIdentity{}, false, errors.New("identity cache: empty title")
	}
	if identity, ok := c.entries[key]; ok {
		c.hits++
		return identity, true, nil
	}
	c.misses++
	identity, err := fn(ctx)
	if err != nil {
		return ShowIdentity{}, false, err
	}
	c.entries[key] = identity
	return identity, false, nil
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries)}
}
