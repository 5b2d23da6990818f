package plugin

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// anonymousName is the display name of a plugin that neither declares a name
// nor was referenced by identifier.
const anonymousName = "anonymous"

// resolve turns a raw plugin reference into a seed. Identifiers go through
// the resolver; every other value is its own seed. Factories are not invoked.
func resolve(r Resolver, raw any) (any, error) {
	id, ok := raw.(string)
	if !ok {
		return raw, nil
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoResolver, id)
	}
	return r.Resolve(id)
}

// InferName returns the display name of a plugin: the descriptor's own name,
// else the identifier without its package prefix, else "anonymous".
func InferName(raw any, d *Descriptor) string {
	if d != nil && d.Name != "" {
		return d.Name
	}
	id, ok := raw.(string)
	if !ok || id == "" {
		return anonymousName
	}
	if name, ok := strings.CutPrefix(id, officialPath); ok {
		return name
	}
	if name, ok := strings.CutPrefix(id, longPrefix); ok {
		return name
	}
	if strings.HasPrefix(id, "@") {
		if scope, name, ok := strings.Cut(id, "/"); ok {
			return scope + "/" + strings.TrimPrefix(name, longPrefix)
		}
	}
	return id
}

func asFactory(seed any) (Factory, bool) {
	switch f := seed.(type) {
	case Factory:
		return f, f != nil
	case func(any, *Context) (*Descriptor, error):
		return f, f != nil
	}
	return nil, false
}

// instantiate produces the descriptor for a seed. Callable seeds are invoked
// with options and a scope derived from ctx; any error they return is
// returned unchanged.
func instantiate(seed any, options any, ctx *Context) (*Descriptor, error) {
	if f, ok := asFactory(seed); ok {
		d, err := f(options, ctx.Derive())
		if err != nil {
			return nil, err
		}
		return toDescriptor(d)
	}
	if isAbsent(seed) || rawKind(seed) != string(KindFunction) {
		return toDescriptor(seed)
	}

	// Any other func is called with as many of (options, ctx) as it takes.
	t := reflect.TypeOf(seed)
	n := t.NumIn()
	if n > 0 && t.In(0) == contextType {
		n--
	}
	if n > 2 || t.IsVariadic() {
		return nil, fmt.Errorf("%w: plugin factory %s", ErrSignature, t)
	}
	args := []any{options, ctx.Derive()}[:n]
	out, err := call(context.Background(), seed, args)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return &Descriptor{}, nil
	}
	return toDescriptor(out[0])
}

// CachingResolver memoizes successful resolutions of another Resolver.
// Failures are not cached. It is safe for concurrent use.
type CachingResolver struct {
	next  Resolver
	cache *lru.LRU[string, any]
}

// NewCachingResolver wraps next with an LRU of size entries that expire after
// ttl. A zero ttl keeps entries until evicted.
func NewCachingResolver(next Resolver, size int, ttl time.Duration) *CachingResolver {
	if size <= 0 {
		size = 128
	}
	return &CachingResolver{
		next:  next,
		cache: lru.NewLRU[string, any](size, nil, ttl),
	}
}

// Resolve implements Resolver.
func (c *CachingResolver) Resolve(id string) (any, error) {
	if seed, ok := c.cache.Get(id); ok {
		return seed, nil
	}
	seed, err := c.next.Resolve(id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(id, seed)
	return seed, nil
}

// Purge drops every cached resolution.
func (c *CachingResolver) Purge() { c.cache.Purge() }

// Len returns the number of cached resolutions.
func (c *CachingResolver) Len() int { return c.cache.Len() }
