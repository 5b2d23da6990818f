package plugin

import (
	"errors"
	"sort"
	"testing"
	"time"
)

func TestCatalog_RegisterAndResolve(t *testing.T) {
	c := NewCatalog()
	seed := &Descriptor{Name: "search"}
	if err := c.Register("press-plugin-search", seed); err != nil {
		t.Fatal(err)
	}
	if err := c.Register("press-plugin-search", seed); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if err := c.Register("", seed); err == nil {
		t.Fatal("expected error for empty id")
	}
	if err := c.Register("nil-seed", nil); err == nil {
		t.Fatal("expected error for nil seed")
	}

	for _, id := range []string{"search", "press-plugin-search"} {
		got, err := c.Resolve(id)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", id, err)
		}
		if got != seed {
			t.Errorf("Resolve(%q) returned a different seed", id)
		}
	}
}

func TestCatalog_ResolveConventions(t *testing.T) {
	c := NewCatalog()
	official := &Descriptor{}
	scoped := &Descriptor{}
	_ = c.Register("@press/plugin-back-to-top", official)
	_ = c.Register("@acme/press-plugin-charts", scoped)

	if got, err := c.Resolve("back-to-top"); err != nil || got != official {
		t.Errorf("short id: got %v, %v", got, err)
	}
	if got, err := c.Resolve("@acme/charts"); err != nil || got != scoped {
		t.Errorf("scoped short id: got %v, %v", got, err)
	}
	if _, err := c.Resolve("nope"); !errors.Is(err, ErrUnknownPlugin) {
		t.Errorf("got %v, want ErrUnknownPlugin", err)
	}
}

func TestCatalog_IDsAndUnregister(t *testing.T) {
	c := NewCatalog()
	_ = c.Register("b", &Descriptor{})
	_ = c.Register("a", &Descriptor{})
	ids := c.IDs()
	if !sort.StringsAreSorted(ids) || len(ids) != 2 {
		t.Fatalf("unexpected ids %v", ids)
	}
	if !c.Unregister("a") || c.Unregister("a") {
		t.Error("Unregister should report presence once")
	}
}

func TestDefaultCatalog(t *testing.T) {
	defer DefaultCatalog.Unregister("press-plugin-mock")

	f := Factory(func(_ any, _ *Context) (*Descriptor, error) {
		return &Descriptor{Name: "mock"}, nil
	})
	if err := RegisterFactory("press-plugin-mock", f); err != nil {
		t.Fatal(err)
	}
	got, ok := GetFactory("mock")
	if !ok {
		t.Fatal("expected factory to be registered")
	}
	d, _ := got(nil, NewContext(nil))
	if d.Name != "mock" {
		t.Errorf("got name %q", d.Name)
	}

	found := false
	for _, id := range RegisteredPlugins() {
		if id == "press-plugin-mock" {
			found = true
		}
	}
	if !found {
		t.Error("RegisteredPlugins should list press-plugin-mock")
	}

	if _, ok := GetFactory("nonexistent-plugin"); ok {
		t.Error("expected factory not to be found")
	}
}

func TestMustRegister_PanicsOnDuplicate(t *testing.T) {
	defer DefaultCatalog.Unregister("press-plugin-dup")
	MustRegister("press-plugin-dup", &Descriptor{})
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustRegister("press-plugin-dup", &Descriptor{})
}

func TestInferName(t *testing.T) {
	tests := []struct {
		raw  any
		d    *Descriptor
		want string
	}{
		{"press-plugin-search", nil, "search"},
		{"@press/plugin-back-to-top", nil, "back-to-top"},
		{"@acme/press-plugin-charts", nil, "@acme/charts"},
		{"@acme/charts", nil, "@acme/charts"},
		{"local-thing", nil, "local-thing"},
		{"press-plugin-search", &Descriptor{Name: "explicit"}, "explicit"},
		{&Descriptor{}, &Descriptor{}, "anonymous"},
		{Factory(nil), nil, "anonymous"},
		{"", nil, "anonymous"},
	}
	for _, tt := range tests {
		if got := InferName(tt.raw, tt.d); got != tt.want {
			t.Errorf("InferName(%v) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

type countingResolver struct {
	calls int
	seed  any
	err   error
}

func (r *countingResolver) Resolve(string) (any, error) {
	r.calls++
	return r.seed, r.err
}

func TestCachingResolver(t *testing.T) {
	next := &countingResolver{seed: &Descriptor{Name: "x"}}
	c := NewCachingResolver(next, 4, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := c.Resolve("x"); err != nil {
			t.Fatal(err)
		}
	}
	if next.calls != 1 {
		t.Errorf("expected one upstream call, got %d", next.calls)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 cached entry, got %d", c.Len())
	}

	c.Purge()
	_, _ = c.Resolve("x")
	if next.calls != 2 {
		t.Errorf("expected a fresh lookup after Purge, got %d calls", next.calls)
	}
}

func TestCachingResolver_DoesNotCacheFailures(t *testing.T) {
	next := &countingResolver{err: ErrUnknownPlugin}
	c := NewCachingResolver(next, 4, 0)
	_, _ = c.Resolve("missing")
	_, err := c.Resolve("missing")
	if !errors.Is(err, ErrUnknownPlugin) {
		t.Fatalf("got %v", err)
	}
	if next.calls != 2 {
		t.Errorf("failures must not be cached, got %d calls", next.calls)
	}
}
