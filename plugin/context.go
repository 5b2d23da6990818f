package plugin

import "sort"

// Well-known ambient keys set on the root context by the site loader.
const (
	KeySourceDir = "sourceDir"
	KeyOutDir    = "outDir"
	KeyBase      = "base"
	KeyIsProd    = "isProd"
)

// noParent marks the root scope of an arena.
const noParent = -1

// scope is one level of a layered context.
type scope struct {
	parent int
	values map[string]any
}

// arena holds every scope derived from one root context. Scopes refer to
// their parent by index.
type arena struct {
	scopes []scope
}

// Context is ambient state shared by the plugins of a registry. Each plugin
// factory receives a derived Context: reads fall back to the parent scope,
// writes stay local and are invisible to siblings and the parent.
//
// Context is not safe for concurrent use; registration is single-threaded.
type Context struct {
	arena *arena
	index int
}

// NewContext creates a root context holding a copy of values.
func NewContext(values map[string]any) *Context {
	local := make(map[string]any, len(values))
	for k, v := range values {
		local[k] = v
	}
	a := &arena{scopes: []scope{{parent: noParent, values: local}}}
	return &Context{arena: a, index: 0}
}

// Derive creates a child scope of c.
func (c *Context) Derive() *Context {
	c.arena.scopes = append(c.arena.scopes, scope{parent: c.index, values: map[string]any{}})
	return &Context{arena: c.arena, index: len(c.arena.scopes) - 1}
}

// Get looks key up in c's own scope, then in each ancestor.
func (c *Context) Get(key string) (any, bool) {
	for i := c.index; i != noParent; i = c.arena.scopes[i].parent {
		if v, ok := c.arena.scopes[i].values[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// GetString returns the string stored under key, or "" when missing or not a
// string.
func (c *Context) GetString(key string) string {
	v, _ := c.Get(key)
	s, _ := v.(string)
	return s
}

// GetBool returns the bool stored under key, or false.
func (c *Context) GetBool(key string) bool {
	v, _ := c.Get(key)
	b, _ := v.(bool)
	return b
}

// Set writes key in c's own scope only.
func (c *Context) Set(key string, value any) {
	c.arena.scopes[c.index].values[key] = value
}

// HasOwn reports whether key is set in c's own scope.
func (c *Context) HasOwn(key string) bool {
	_, ok := c.arena.scopes[c.index].values[key]
	return ok
}

// Parent returns the scope c was derived from, or nil for a root.
func (c *Context) Parent() *Context {
	p := c.arena.scopes[c.index].parent
	if p == noParent {
		return nil
	}
	return &Context{arena: c.arena, index: p}
}

// Depth returns the number of ancestors of c.
func (c *Context) Depth() int {
	d := 0
	for p := c.arena.scopes[c.index].parent; p != noParent; p = c.arena.scopes[p].parent {
		d++
	}
	return d
}

// Keys returns every key visible from c, sorted.
func (c *Context) Keys() []string {
	seen := map[string]struct{}{}
	for i := c.index; i != noParent; i = c.arena.scopes[i].parent {
		for k := range c.arena.scopes[i].values {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
