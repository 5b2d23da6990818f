package plugin

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Package naming conventions used to expand short identifiers.
const (
	longPrefix   = "press-plugin-"
	officialPath = "@press/plugin-"
)

// Resolver maps a plugin identifier to a loadable value: a Factory, a
// *Descriptor, or a literal record.
type Resolver interface {
	Resolve(id string) (any, error)
}

// Catalog is an in-process Resolver keyed by package-style identifier.
// It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]any)}
}

// Register stores seed under id. Registering an id twice is an error.
func (c *Catalog) Register(id string, seed any) error {
	if id == "" {
		return fmt.Errorf("plugin id is required")
	}
	if isAbsent(seed) {
		return fmt.Errorf("plugin %s: nil seed", id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[id]; exists {
		return fmt.Errorf("plugin already registered: %s", id)
	}
	c.entries[id] = seed
	return nil
}

// Resolve returns the seed registered under id or under one of its
// conventional long forms.
func (c *Catalog) Resolve(id string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, candidate := range candidateIDs(id) {
		if seed, ok := c.entries[candidate]; ok {
			return seed, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPlugin, id)
}

// IDs returns every registered id, sorted.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Unregister removes id. It reports whether id was present.
func (c *Catalog) Unregister(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[id]
	delete(c.entries, id)
	return ok
}

// candidateIDs lists the identifiers tried for id, most specific first:
// "x" -> x, press-plugin-x, @press/plugin-x; "@org/x" -> @org/x,
// @org/press-plugin-x.
func candidateIDs(id string) []string {
	candidates := []string{id}
	if strings.HasPrefix(id, "@") {
		scope, name, ok := strings.Cut(id, "/")
		if ok && !strings.HasPrefix(name, longPrefix) {
			candidates = append(candidates, scope+"/"+longPrefix+name)
		}
		return candidates
	}
	if !strings.HasPrefix(id, longPrefix) {
		candidates = append(candidates, longPrefix+id, officialPath+id)
	}
	return candidates
}

// DefaultCatalog holds plugins registered from init functions.
var DefaultCatalog = NewCatalog()

// RegisterFactory registers a plugin factory in DefaultCatalog.
func RegisterFactory(id string, factory Factory) error {
	return DefaultCatalog.Register(id, factory)
}

// MustRegister registers seed in DefaultCatalog and panics on error. Use it
// from init functions.
func MustRegister(id string, seed any) {
	if err := DefaultCatalog.Register(id, seed); err != nil {
		panic(err)
	}
}

// GetFactory returns the factory registered in DefaultCatalog under id.
func GetFactory(id string) (Factory, bool) {
	seed, err := DefaultCatalog.Resolve(id)
	if err != nil {
		return nil, false
	}
	f, ok := asFactory(seed)
	return f, ok
}

// RegisteredPlugins returns the ids registered in DefaultCatalog.
func RegisteredPlugins() []string {
	return DefaultCatalog.IDs()
}
