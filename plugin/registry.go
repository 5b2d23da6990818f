package plugin

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/ferro-labs/pressplug/internal/metrics"
)

// Status is the outcome of registering one plugin entry.
type Status string

// Status constants describe what happened to a plugin entry.
const (
	StatusApplied  Status = "applied"
	StatusDisabled Status = "disabled"
	StatusFailed   Status = "failed"
)

// Diagnostic describes a contribution that was dropped.
type Diagnostic struct {
	Plugin string `json:"plugin"`
	// Kind is "hook" or "option".
	Kind    string `json:"kind"`
	Target  string `json:"target"`
	Message string `json:"message"`
}

// Outcome summarizes the registration of one plugin entry.
type Outcome struct {
	Index         int          `json:"index"`
	Plugin        string       `json:"plugin"`
	Status        Status       `json:"status"`
	Contributions int          `json:"contributions"`
	Diagnostics   []Diagnostic `json:"diagnostics,omitempty"`
}

// Report collects the outcomes of a registration pass in list order.
type Report struct {
	Outcomes []Outcome `json:"outcomes"`
}

// Count returns the number of outcomes with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Diagnostics returns every diagnostic of the pass in order.
func (r *Report) Diagnostics() []Diagnostic {
	var out []Diagnostic
	for _, o := range r.Outcomes {
		out = append(out, o.Diagnostics...)
	}
	return out
}

// Registry owns the hooks and options of one build and attaches plugin
// contributions to them in registration order.
//
// A Registry is not safe for concurrent use.
type Registry struct {
	hooks    map[HookName]*Hook
	options  map[OptionName]Option
	ctx      *Context
	resolver Resolver
	log      *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithContext sets the ambient context plugin factories derive from. A
// plugin hosting sub-plugins passes the context it received here.
func WithContext(ctx *Context) RegistryOption {
	return func(r *Registry) { r.ctx = ctx }
}

// WithResolver sets the resolver used for identifier references.
func WithResolver(res Resolver) RegistryOption {
	return func(r *Registry) { r.resolver = res }
}

// WithLogger sets the logger receiving diagnostics.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// NewRegistry creates a registry with one empty hook per HookName and one
// empty option per OptionName. Without WithResolver identifiers resolve
// through DefaultCatalog.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		hooks:    make(map[HookName]*Hook, len(HookNames)),
		options:  make(map[OptionName]Option, len(OptionNames)),
		resolver: DefaultCatalog,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.ctx == nil {
		r.ctx = NewContext(nil)
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	for _, name := range HookNames {
		r.hooks[name] = NewHook(name)
	}
	for _, name := range OptionNames {
		o, err := NewOption(name)
		if err != nil {
			// OptionNames and NewOption are maintained together.
			panic(err)
		}
		r.options[name] = o
	}
	return r
}

// Use registers a single plugin. raw is an identifier, a Factory (or other
// func), a *Descriptor, or a literal record; options are passed to factories.
//
// Invalid contributions and disabled plugins are reported in the Outcome.
// Resolution and factory failures are returned unchanged and nothing is
// attached.
func (r *Registry) Use(raw any, options any) (Outcome, error) {
	seed, err := resolve(r.resolver, raw)
	if err != nil {
		return r.failed(InferName(raw, nil)), err
	}
	d, err := instantiate(seed, options, r.ctx)
	if err != nil {
		return r.failed(InferName(raw, nil)), err
	}

	name := InferName(raw, d)
	if !d.IsEnabled() {
		r.log.Debug("plugin disabled", "plugin", name)
		metrics.PluginsTotal.WithLabelValues(string(StatusDisabled)).Inc()
		return Outcome{Plugin: name, Status: StatusDisabled}, nil
	}

	r.log.Debug("applying plugin", "plugin", name)
	out := r.apply(name, d)
	metrics.PluginsTotal.WithLabelValues(string(StatusApplied)).Inc()
	return out, nil
}

func (r *Registry) failed(name string) Outcome {
	metrics.PluginsTotal.WithLabelValues(string(StatusFailed)).Inc()
	return Outcome{Plugin: name, Status: StatusFailed}
}

// apply dispatches every contribution of d, hooks first, in enumeration order.
func (r *Registry) apply(name string, d *Descriptor) Outcome {
	out := Outcome{Plugin: name, Status: StatusApplied}

	for _, h := range HookNames {
		fn := d.Hook(h)
		if isAbsent(fn) {
			continue
		}
		res := Check(fn, KindFunction)
		if res.Valid {
			res.Valid = r.hooks[h].Tap(name, fn) == nil
		}
		if !res.Valid {
			r.log.Warn("invalid hook value", "plugin", name, "hook", h, "reason", res.Message)
			out.Diagnostics = append(out.Diagnostics, Diagnostic{
				Plugin: name, Kind: "hook", Target: string(h), Message: res.Message,
			})
			metrics.ContributionsTotal.WithLabelValues("hook", string(h), "rejected").Inc()
			continue
		}
		out.Contributions++
		metrics.ContributionsTotal.WithLabelValues("hook", string(h), "accepted").Inc()
	}

	for _, o := range OptionNames {
		v := d.Option(o)
		if isAbsent(v) {
			continue
		}
		if res := r.options[o].Tap(name, v); !res.Valid {
			r.log.Warn("invalid option value", "plugin", name, "option", o, "reason", res.Message)
			out.Diagnostics = append(out.Diagnostics, Diagnostic{
				Plugin: name, Kind: "option", Target: string(o), Message: res.Message,
			})
			metrics.ContributionsTotal.WithLabelValues("option", string(o), "rejected").Inc()
			continue
		}
		out.Contributions++
		metrics.ContributionsTotal.WithLabelValues("option", string(o), "accepted").Inc()
	}
	return out
}

// UseByConfigs registers every entry of configs in order. Each entry is a
// bare reference or a [reference, options] sequence. Anything other than a
// sequence is treated as an empty list.
//
// The first resolution or factory failure stops the pass; the returned
// *RegistrationError names the entry and wraps the cause. The report covers
// every entry processed, including the failing one.
func (r *Registry) UseByConfigs(configs any) (*Report, error) {
	entries := asList(configs)
	report := &Report{Outcomes: make([]Outcome, 0, len(entries))}
	for i, entry := range entries {
		raw, options := splitEntry(entry)
		out, err := r.Use(raw, options)
		out.Index = i
		report.Outcomes = append(report.Outcomes, out)
		if err != nil {
			return report, &RegistrationError{Index: i, Plugin: out.Plugin, Err: err}
		}
	}
	return report, nil
}

func asList(v any) []any {
	if isAbsent(v) {
		return nil
	}
	if list, ok := v.([]any); ok {
		return list
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	list := make([]any, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}
	return list
}

func splitEntry(entry any) (raw any, options any) {
	if isAbsent(entry) || rawKind(entry) != string(KindArray) {
		return entry, nil
	}
	pair := asList(entry)
	if len(pair) > 0 {
		raw = pair[0]
	}
	if len(pair) > 1 {
		options = pair[1]
	}
	return raw, options
}

// Hook returns the named hook, or nil for an unknown name.
func (r *Registry) Hook(name HookName) *Hook { return r.hooks[name] }

// Option returns the named option, or nil for an unknown name.
func (r *Registry) Option(name OptionName) Option { return r.options[name] }

// Hooks returns the hooks keyed by name.
func (r *Registry) Hooks() map[HookName]*Hook {
	out := make(map[HookName]*Hook, len(r.hooks))
	for k, v := range r.hooks {
		out[k] = v
	}
	return out
}

// Options returns the options keyed by name.
func (r *Registry) Options() map[OptionName]Option {
	out := make(map[OptionName]Option, len(r.options))
	for k, v := range r.options {
		out[k] = v
	}
	return out
}

// Values returns the accumulated value of every option.
func (r *Registry) Values() map[OptionName]any {
	out := make(map[OptionName]any, len(r.options))
	for k, v := range r.options {
		out[k] = v.Value()
	}
	return out
}

// Context returns the ambient context plugin factories derive from.
func (r *Registry) Context() *Context { return r.ctx }

// String implements fmt.Stringer for diagnostics.
func (r *Registry) String() string {
	taps := 0
	for _, h := range r.hooks {
		taps += h.Len()
	}
	contributions := 0
	for _, o := range r.options {
		contributions += len(o.Entries())
	}
	return fmt.Sprintf("registry(hooks=%d taps=%d option_entries=%d)", len(r.hooks), taps, contributions)
}
