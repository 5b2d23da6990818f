package plugin

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ferro-labs/pressplug/internal/metrics"
)

func newTestRegistry(t *testing.T, opts ...RegistryOption) (*Registry, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	opts = append([]RegistryOption{WithLogger(log), WithResolver(NewCatalog())}, opts...)
	return NewRegistry(opts...), &buf
}

func TestNewRegistry_CreatesEveryHookAndOption(t *testing.T) {
	r, _ := newTestRegistry(t)
	for _, h := range HookNames {
		if r.Hook(h) == nil || r.Hook(h).Len() != 0 {
			t.Errorf("hook %s missing or not empty", h)
		}
	}
	for _, o := range OptionNames {
		if r.Option(o) == nil {
			t.Errorf("option %s missing", o)
		}
	}
	if len(r.Hooks()) != len(HookNames) || len(r.Options()) != len(OptionNames) {
		t.Error("consumption maps have the wrong size")
	}
}

func TestUseByConfigs_HookOrderFollowsList(t *testing.T) {
	r, _ := newTestRegistry(t)
	var order []string
	fnA := func() { order = append(order, "A") }
	fnB := func() { order = append(order, "B") }

	_, err := r.UseByConfigs([]any{
		&Descriptor{Name: "a", Ready: fnA},
		&Descriptor{Name: "b", Ready: fnB},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Hook(HookReady).Invoke(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(order, []string{"A", "B"}) {
		t.Errorf("got %v, want [A B]", order)
	}
	if got := r.Hook(HookReady).Contributors(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("contributors %v", got)
	}
}

func TestUseByConfigs_OutFilesLaterWins(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.UseByConfigs([]any{
		&Descriptor{Name: "a", OutFiles: map[string]any{"x": 1}},
		&Descriptor{Name: "b", OutFiles: map[string]any{"x": 2, "y": 3}},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"x": 2, "y": 3}
	if got := r.Values()[OptionOutFiles]; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestUseByConfigs_FactoryReceivesOptionsAndInheritedContext(t *testing.T) {
	root := NewContext(map[string]any{KeySourceDir: "docs"})
	r, _ := newTestRegistry(t, WithContext(root))

	var gotOptions any
	var gotCtx *Context
	factory := Factory(func(options any, ctx *Context) (*Descriptor, error) {
		gotOptions = options
		gotCtx = ctx
		ctx.Set("private", true)
		return &Descriptor{Name: "probe"}, nil
	})

	opts := map[string]any{"foo": 1}
	if _, err := r.UseByConfigs([]any{[]any{factory, opts}}); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(gotOptions, opts) {
		t.Errorf("factory saw options %v, want %v", gotOptions, opts)
	}
	if gotCtx.GetString(KeySourceDir) != "docs" {
		t.Error("factory context must inherit the registry's ambient values")
	}
	if gotCtx == root || gotCtx.Depth() != 1 {
		t.Error("factory must receive a derived context")
	}
	if _, ok := root.Get("private"); ok {
		t.Error("plugin writes must not reach the registry context")
	}
}

func TestUseByConfigs_SiblingContextsAreIsolated(t *testing.T) {
	r, _ := newTestRegistry(t, WithContext(NewContext(map[string]any{"shared": "root"})))
	var seen []any
	writer := func(_ any, ctx *Context) (*Descriptor, error) {
		ctx.Set("shared", "writer")
		return &Descriptor{Name: "writer"}, nil
	}
	reader := func(_ any, ctx *Context) (*Descriptor, error) {
		v, _ := ctx.Get("shared")
		seen = append(seen, v)
		return &Descriptor{Name: "reader"}, nil
	}
	if _, err := r.UseByConfigs([]any{writer, reader}); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(seen, []any{"root"}) {
		t.Errorf("sibling observed %v", seen)
	}
}

func TestUseByConfigs_NonSequenceIsNoop(t *testing.T) {
	for _, input := range []any{nil, []any(nil), "ready", map[string]any{"ready": func() {}}, 3} {
		r, _ := newTestRegistry(t)
		report, err := r.UseByConfigs(input)
		if err != nil {
			t.Fatalf("UseByConfigs(%v): %v", input, err)
		}
		if len(report.Outcomes) != 0 {
			t.Errorf("UseByConfigs(%v) produced outcomes", input)
		}
		assertUntouched(t, r)
	}
}

func TestUse_DisabledPluginChangesNothing(t *testing.T) {
	r, buf := newTestRegistry(t)
	before := testutil.ToFloat64(metrics.PluginsTotal.WithLabelValues("disabled"))

	out, err := r.Use(&Descriptor{
		Name:            "off",
		Enabled:         Bool(false),
		Ready:           func() {},
		OutFiles:        map[string]any{"x": 1},
		ClientRootMixin: "mixin.js",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusDisabled || out.Contributions != 0 {
		t.Errorf("unexpected outcome %+v", out)
	}
	assertUntouched(t, r)
	if !strings.Contains(buf.String(), "plugin disabled") {
		t.Errorf("expected disabled diagnostic, got %q", buf.String())
	}
	if after := testutil.ToFloat64(metrics.PluginsTotal.WithLabelValues("disabled")); after != before+1 {
		t.Errorf("disabled counter went from %v to %v", before, after)
	}
}

func TestUse_DisabledFromRecord(t *testing.T) {
	r, _ := newTestRegistry(t)
	out, err := r.Use(map[string]any{"name": "rec", "enabled": false, "globalUIComponents": "X"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusDisabled {
		t.Errorf("got %s", out.Status)
	}
	assertUntouched(t, r)
}

func TestUse_RecordEnabledTruthiness(t *testing.T) {
	tests := []struct {
		name    string
		enabled any
		want    Status
	}{
		{"null", nil, StatusDisabled},
		{"zero", 0, StatusDisabled},
		{"zero float", float64(0), StatusDisabled},
		{"empty string", "", StatusDisabled},
		{"true", true, StatusApplied},
		{"one", 1, StatusApplied},
		{"non-empty string", "yes", StatusApplied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRegistry(t)
			out, err := r.Use(map[string]any{"name": "rec", "enabled": tt.enabled, "globalUIComponents": "X"}, nil)
			if err != nil {
				t.Fatal(err)
			}
			if out.Status != tt.want {
				t.Errorf("enabled=%#v: got %s, want %s", tt.enabled, out.Status, tt.want)
			}
		})
	}
}

func TestUse_RecordWithoutEnabledIsApplied(t *testing.T) {
	r, _ := newTestRegistry(t)
	out, err := r.Use(map[string]any{"name": "rec", "globalUIComponents": "X"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusApplied {
		t.Errorf("got %s", out.Status)
	}
}

func TestUse_InvalidContributionIsDroppedOthersApply(t *testing.T) {
	r, buf := newTestRegistry(t)
	_, _ = r.Use(&Descriptor{Name: "first", GlobalUIComponents: "Banner"}, nil)
	before := r.Values()

	out, err := r.Use(map[string]any{
		"name":               "mixed",
		"ready":              "not-a-function",
		"outFiles":           []any{"not", "a", "record"},
		"globalUIComponents": []any{"Extra"},
		"clientRootMixin":    "mixin.js",
		"unknownField":       42,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusApplied {
		t.Fatalf("got %s", out.Status)
	}
	if out.Contributions != 2 || len(out.Diagnostics) != 2 {
		t.Fatalf("expected 2 accepted and 2 rejected, got %+v", out)
	}
	if out.Diagnostics[0].Kind != "hook" || out.Diagnostics[0].Target != "ready" {
		t.Errorf("unexpected first diagnostic %+v", out.Diagnostics[0])
	}
	if out.Diagnostics[1].Target != "outFiles" {
		t.Errorf("unexpected second diagnostic %+v", out.Diagnostics[1])
	}

	if r.Hook(HookReady).Len() != 0 {
		t.Error("invalid hook value must not be tapped")
	}
	if !reflect.DeepEqual(r.Values()[OptionOutFiles], before[OptionOutFiles]) {
		t.Error("outFiles changed after an invalid contribution")
	}
	if got := r.Values()[OptionGlobalUIComponents]; !reflect.DeepEqual(got, []any{"Banner", "Extra"}) {
		t.Errorf("got %v", got)
	}
	log := buf.String()
	if !strings.Contains(log, "invalid hook value") || !strings.Contains(log, "invalid option value") {
		t.Errorf("expected warnings, got %q", log)
	}
	if !strings.Contains(log, "plugin=mixed") {
		t.Errorf("warnings must carry the plugin name, got %q", log)
	}
}

func TestUse_SamePluginTwiceTapsTwice(t *testing.T) {
	r, _ := newTestRegistry(t)
	calls := 0
	d := &Descriptor{Name: "twice", Compiled: func() { calls++ }, ClientRootMixin: "one.js"}
	_, _ = r.Use(d, nil)
	_, _ = r.Use(&Descriptor{Name: "other", ClientRootMixin: "two.js"}, nil)
	_, _ = r.Use(d, nil)

	if err := r.Hook(HookCompiled).Invoke(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("expected both taps to run, got %d", calls)
	}
	if r.Values()[OptionClientRootMixin] != "one.js" {
		t.Errorf("last writer should win, got %v", r.Values()[OptionClientRootMixin])
	}
}

func TestUse_SequenceOptionConcatenates(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, _ = r.UseByConfigs([]any{
		&Descriptor{Name: "a", ExtendPageData: func(page map[string]any) { page["a"] = true }},
		&Descriptor{Name: "b", ExtendPageData: func(page map[string]any) { page["b"] = true }},
	})
	page := map[string]any{}
	if _, err := r.Option(OptionExtendPageData).Apply(context.Background(), page); err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 {
		t.Errorf("both extenders should run, page=%v", page)
	}
}

func TestUse_IdentifierResolution(t *testing.T) {
	c := NewCatalog()
	_ = c.Register("press-plugin-seo", &Descriptor{GlobalUIComponents: "SeoMeta"})
	r, _ := newTestRegistry(t, WithResolver(c))

	out, err := r.Use("seo", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Plugin != "seo" {
		t.Errorf("inferred name %q, want seo", out.Plugin)
	}
	entries := r.Option(OptionGlobalUIComponents).Entries()
	if len(entries) != 1 || entries[0].Contributor != "seo" {
		t.Errorf("unexpected entries %v", entries)
	}
}

func TestUse_ResolutionWithoutResolver(t *testing.T) {
	r := NewRegistry(WithResolver(nil), WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	if _, err := r.Use("anything", nil); !errors.Is(err, ErrNoResolver) {
		t.Fatalf("got %v, want ErrNoResolver", err)
	}
}

func TestUse_GenericFuncSeed(t *testing.T) {
	r, _ := newTestRegistry(t)
	seen := 0
	out, err := r.Use(func(opts map[string]any) map[string]any {
		seen = opts["n"].(int)
		return map[string]any{"name": "generic", "clientRootMixin": "g.js"}
	}, map[string]any{"n": 7})
	if err != nil {
		t.Fatal(err)
	}
	if seen != 7 || out.Plugin != "generic" {
		t.Errorf("seen=%d outcome=%+v", seen, out)
	}
	if r.Values()[OptionClientRootMixin] != "g.js" {
		t.Errorf("got %v", r.Values()[OptionClientRootMixin])
	}

	if _, err := r.Use(func(a, b, c int) {}, nil); !errors.Is(err, ErrSignature) {
		t.Errorf("got %v, want ErrSignature", err)
	}
}

func TestUseByConfigs_FactoryFailureAbortsPass(t *testing.T) {
	r, _ := newTestRegistry(t)
	boom := errors.New("missing hostname")
	ran := false

	report, err := r.UseByConfigs([]any{
		&Descriptor{Name: "first", Ready: func() {}},
		[]any{Factory(func(any, *Context) (*Descriptor, error) { return nil, boom }), nil},
		Factory(func(any, *Context) (*Descriptor, error) {
			ran = true
			return &Descriptor{}, nil
		}),
	})

	var regErr *RegistrationError
	if !errors.As(err, &regErr) {
		t.Fatalf("got %v, want *RegistrationError", err)
	}
	if regErr.Index != 1 || !errors.Is(err, boom) {
		t.Errorf("unexpected error %+v", regErr)
	}
	if ran {
		t.Error("entries after the failure must not be processed")
	}
	if len(report.Outcomes) != 2 || report.Outcomes[1].Status != StatusFailed {
		t.Errorf("unexpected report %+v", report.Outcomes)
	}
	if r.Hook(HookReady).Len() != 1 {
		t.Error("contributions made before the failure are kept")
	}
}

func TestUseByConfigs_UnknownIdentifierAbortsPass(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.UseByConfigs([]string{"does-not-exist"})
	if !errors.Is(err, ErrUnknownPlugin) {
		t.Fatalf("got %v, want ErrUnknownPlugin", err)
	}
	var regErr *RegistrationError
	if errors.As(err, &regErr) && regErr.Plugin != "does-not-exist" {
		t.Errorf("got plugin %q", regErr.Plugin)
	}
}

func TestUseByConfigs_NestedRegistry(t *testing.T) {
	root := NewContext(map[string]any{KeyOutDir: "dist"})
	outer, _ := newTestRegistry(t, WithContext(root))

	var innerSaw string
	host := Factory(func(_ any, ctx *Context) (*Descriptor, error) {
		ctx.Set("hostFlag", "on")
		inner := NewRegistry(WithContext(ctx), WithResolver(nil), WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
		_, err := inner.UseByConfigs([]any{Factory(func(_ any, sub *Context) (*Descriptor, error) {
			innerSaw = sub.GetString(KeyOutDir) + "/" + sub.GetString("hostFlag")
			return &Descriptor{}, nil
		})})
		if err != nil {
			return nil, err
		}
		return &Descriptor{Name: "host", GlobalUIComponents: inner.Values()[OptionGlobalUIComponents]}, nil
	})

	if _, err := outer.UseByConfigs([]any{host}); err != nil {
		t.Fatal(err)
	}
	if innerSaw != "dist/on" {
		t.Errorf("sub-plugin saw %q, want dist/on", innerSaw)
	}
}

func TestReport_Count(t *testing.T) {
	r, _ := newTestRegistry(t)
	report, _ := r.UseByConfigs([]any{
		&Descriptor{Name: "a"},
		&Descriptor{Name: "b", Enabled: Bool(false)},
		map[string]any{"name": "c", "ready": 1},
	})
	if report.Count(StatusApplied) != 2 || report.Count(StatusDisabled) != 1 {
		t.Errorf("unexpected counts in %+v", report.Outcomes)
	}
	if len(report.Diagnostics()) != 1 {
		t.Errorf("expected one diagnostic, got %v", report.Diagnostics())
	}
	for i, o := range report.Outcomes {
		if o.Index != i {
			t.Errorf("outcome %d has index %d", i, o.Index)
		}
	}
}

func assertUntouched(t *testing.T, r *Registry) {
	t.Helper()
	for name, h := range r.Hooks() {
		if h.Len() != 0 {
			t.Errorf("hook %s has %d entries", name, h.Len())
		}
	}
	for name, o := range r.Options() {
		if len(o.Entries()) != 0 {
			t.Errorf("option %s has entries %v", name, o.Entries())
		}
	}
}
