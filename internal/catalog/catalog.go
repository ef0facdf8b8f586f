// Package catalog implements a thread-safe mapping from library name to its
// available versions and their transitive dependencies.
package catalog

import (
	"sync"

	"github.com/armon/go-radix"

	"github.com/tylerdiaz/supergemlock/internal/version"
)

// Dependency is a {name, constraints} pair as declared by a CatalogEntry.
type Dependency struct {
	Name        string
	Constraints []version.Constraint
}

// Entry is a single known (name, version, dependencies) record.
type Entry struct {
	Name         string
	Version      version.Version
	Dependencies []Dependency
}

// Source populates a Cache during the controlled population phase that
// precedes resolution. Concrete sources (a seeded fixture, a registry
// client) implement this to stay decoupled from the resolver.
type Source interface {
	Load(c *Cache) error
}

// Cache is the mapping name -> available set, guarded by a reader/writer
// discipline: many concurrent readers (resolver workers), exclusive writers
// (population, which completes before resolution starts).
//
// It is backed by a radix tree rather than a bare map so Names gets
// alphabetical iteration over library names for free.
type Cache struct {
	mu   sync.RWMutex
	tree *radix.Tree
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{tree: radix.New()}
}

// Add inserts an entry for its library. Duplicates by (name, version) are
// permitted: it's the resolver's "already resolved" check that prevents a
// library from being selected twice, not the cache.
func (c *Cache) Add(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.tree.Get(e.Name)
	var entries []Entry
	if ok {
		entries = v.([]Entry)
	}
	entries = append(entries, e)
	c.tree.Insert(e.Name, entries)
}

// VersionsFor returns a read-only snapshot of the available set for name.
// The returned slice must not be mutated: it may be shared with concurrent
// readers.
func (c *Cache) VersionsFor(name string) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.tree.Get(name)
	if !ok {
		return nil
	}
	return v.([]Entry)
}

// Names returns every library name present in the cache, alphabetically.
func (c *Cache) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, c.tree.Len())
	c.tree.Walk(func(k string, _ interface{}) bool {
		names = append(names, k)
		return false
	})
	return names
}

// Len returns the number of distinct library names in the cache.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tree.Len()
}
