package plugin

import (
	"context"
	"fmt"
	"reflect"
)

// Option is a configuration point whose value accumulates from plugin
// contributions according to a fixed merge rule.
type Option interface {
	Name() OptionName
	// Kinds returns the shapes the option accepts.
	Kinds() []Kind
	// Tap validates value and merges it. When the returned result is not
	// valid, the option is unchanged.
	Tap(contributor string, value any) CheckResult
	// Value returns the accumulated value.
	Value() any
	// Entries returns the merged contributions in order.
	Entries() []Entry
	// Apply walks Entries in order, calling callables with args and passing
	// other values through.
	Apply(ctx context.Context, args ...any) ([]Result, error)
}

// Result is one value produced by Option.Apply.
type Result struct {
	Contributor string
	// Value is the entry itself for non-callable entries, or the first
	// non-error result of the call (nil when the callable returns nothing).
	Value any
}

// NewOption creates the option registered under name with its merge rule.
func NewOption(name OptionName) (Option, error) {
	switch name {
	case OptionChainWebpack, OptionEnhanceDevServer, OptionExtendMarkdown,
		OptionExtendPageData, OptionClientDynamicModules:
		return &sequenceOption{name: name, kinds: []Kind{KindFunction}}, nil
	case OptionEnhanceAppFiles:
		return &sequenceOption{
			name:     name,
			kinds:    []Kind{KindArray, KindFunction},
			elements: []Kind{KindFunction},
		}, nil
	case OptionAdditionalPages:
		return &sequenceOption{name: name, kinds: []Kind{KindFunction, KindArray}}, nil
	case OptionGlobalUIComponents:
		return &sequenceOption{
			name:     name,
			kinds:    []Kind{KindString, KindArray},
			elements: []Kind{KindString},
		}, nil
	case OptionOutFiles:
		return &recordOption{name: name, merged: map[string]any{}}, nil
	case OptionClientRootMixin:
		return &singleOption{name: name}, nil
	default:
		return nil, fmt.Errorf("unknown option: %s", name)
	}
}

// sequenceOption normalizes every contribution to a sequence and concatenates.
type sequenceOption struct {
	name     OptionName
	kinds    []Kind
	elements []Kind
	entries  []Entry
}

func (o *sequenceOption) Name() OptionName { return o.name }
func (o *sequenceOption) Kinds() []Kind    { return o.kinds }

func (o *sequenceOption) Tap(contributor string, value any) CheckResult {
	res := Check(value, o.kinds...)
	if !res.Valid || isAbsent(value) {
		return res
	}
	if o.elements != nil {
		if res := checkElements(value, o.elements...); !res.Valid {
			return res
		}
	}
	if rawKind(value) != string(KindArray) {
		o.entries = append(o.entries, Entry{Contributor: contributor, Value: value})
		return res
	}
	rv := reflect.ValueOf(value)
	for i := 0; i < rv.Len(); i++ {
		o.entries = append(o.entries, Entry{Contributor: contributor, Value: rv.Index(i).Interface()})
	}
	return res
}

func (o *sequenceOption) Value() any {
	values := make([]any, len(o.entries))
	for i, e := range o.entries {
		values[i] = e.Value
	}
	return values
}

func (o *sequenceOption) Entries() []Entry { return copyEntries(o.entries) }

func (o *sequenceOption) Apply(ctx context.Context, args ...any) ([]Result, error) {
	return applyEntries(ctx, o.name, o.entries, args)
}

// recordOption shallow-merges records; later contributions win per key.
type recordOption struct {
	name    OptionName
	merged  map[string]any
	entries []Entry
}

func (o *recordOption) Name() OptionName { return o.name }
func (o *recordOption) Kinds() []Kind    { return []Kind{KindObject} }

func (o *recordOption) Tap(contributor string, value any) CheckResult {
	res := Check(value, KindObject)
	if !res.Valid || isAbsent(value) {
		return res
	}
	iter := reflect.ValueOf(value).MapRange()
	for iter.Next() {
		o.merged[iter.Key().String()] = iter.Value().Interface()
	}
	o.entries = append(o.entries, Entry{Contributor: contributor, Value: value})
	return res
}

func (o *recordOption) Value() any {
	out := make(map[string]any, len(o.merged))
	for k, v := range o.merged {
		out[k] = v
	}
	return out
}

func (o *recordOption) Entries() []Entry { return copyEntries(o.entries) }

func (o *recordOption) Apply(ctx context.Context, args ...any) ([]Result, error) {
	return applyEntries(ctx, o.name, o.entries, args)
}

// singleOption holds exactly one active value; the last writer wins.
type singleOption struct {
	name   OptionName
	active *Entry
}

func (o *singleOption) Name() OptionName { return o.name }
func (o *singleOption) Kinds() []Kind    { return []Kind{KindString} }

func (o *singleOption) Tap(contributor string, value any) CheckResult {
	res := Check(value, KindString)
	if !res.Valid || isAbsent(value) {
		return res
	}
	o.active = &Entry{Contributor: contributor, Value: reflect.ValueOf(value).String()}
	return res
}

func (o *singleOption) Value() any {
	if o.active == nil {
		return ""
	}
	return o.active.Value
}

func (o *singleOption) Entries() []Entry {
	if o.active == nil {
		return nil
	}
	return []Entry{*o.active}
}

func (o *singleOption) Apply(ctx context.Context, args ...any) ([]Result, error) {
	return applyEntries(ctx, o.name, o.Entries(), args)
}

func copyEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

func applyEntries(ctx context.Context, name OptionName, entries []Entry, args []any) ([]Result, error) {
	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if rawKind(e.Value) != string(KindFunction) {
			results = append(results, Result{Contributor: e.Contributor, Value: e.Value})
			continue
		}
		out, err := call(ctx, e.Value, args)
		if err != nil {
			return results, fmt.Errorf("option %s: plugin %s: %w", name, e.Contributor, err)
		}
		r := Result{Contributor: e.Contributor}
		if len(out) > 0 {
			r.Value = out[0]
		}
		results = append(results, r)
	}
	return results, nil
}
