// Package plugin implements the extension-point registry of the site build
// pipeline.
//
// A plugin is described by a Descriptor: a display name, an enabled flag and
// one optional field per lifecycle hook and per configuration option. A
// Registry walks an ordered plugin list, resolves each entry (identifier,
// Factory, or literal descriptor), validates every contribution against the
// shapes its target accepts and attaches it to the matching Hook or Option.
// The pipeline then reads Registry.Hooks and Registry.Options.
//
// Built-in plugins live in the internal/plugins/* packages and register
// themselves in DefaultCatalog from init, so a blank import makes them
// resolvable by identifier.
package plugin

import (
	"fmt"
	"math"
	"reflect"
)

// Factory builds a plugin descriptor from user options. ctx is a scope
// derived from the registry's context.
type Factory func(options any, ctx *Context) (*Descriptor, error)

// Descriptor is a plugin's contribution record. Every hook and option field
// is optional; nil means "not contributed".
type Descriptor struct {
	Name    string
	Enabled *bool

	Ready     any
	Compiled  any
	Updated   any
	Generated any

	ChainWebpack         any
	EnhanceDevServer     any
	ExtendMarkdown       any
	ExtendPageData       any
	EnhanceAppFiles      any
	OutFiles             any
	ClientDynamicModules any
	ClientRootMixin      any
	AdditionalPages      any
	GlobalUIComponents   any
}

// Bool returns a pointer to b, for Descriptor.Enabled.
func Bool(b bool) *bool { return &b }

// IsEnabled reports whether the descriptor is enabled. Enabled defaults to
// true.
func (d *Descriptor) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// Hook returns the contribution for the named hook.
func (d *Descriptor) Hook(name HookName) any {
	switch name {
	case HookReady:
		return d.Ready
	case HookCompiled:
		return d.Compiled
	case HookUpdated:
		return d.Updated
	case HookGenerated:
		return d.Generated
	}
	return nil
}

// Option returns the contribution for the named option.
func (d *Descriptor) Option(name OptionName) any {
	switch name {
	case OptionChainWebpack:
		return d.ChainWebpack
	case OptionEnhanceDevServer:
		return d.EnhanceDevServer
	case OptionExtendMarkdown:
		return d.ExtendMarkdown
	case OptionExtendPageData:
		return d.ExtendPageData
	case OptionEnhanceAppFiles:
		return d.EnhanceAppFiles
	case OptionOutFiles:
		return d.OutFiles
	case OptionClientDynamicModules:
		return d.ClientDynamicModules
	case OptionClientRootMixin:
		return d.ClientRootMixin
	case OptionAdditionalPages:
		return d.AdditionalPages
	case OptionGlobalUIComponents:
		return d.GlobalUIComponents
	}
	return nil
}

func (d *Descriptor) setHook(name HookName, v any) {
	switch name {
	case HookReady:
		d.Ready = v
	case HookCompiled:
		d.Compiled = v
	case HookUpdated:
		d.Updated = v
	case HookGenerated:
		d.Generated = v
	}
}

func (d *Descriptor) setOption(name OptionName, v any) {
	switch name {
	case OptionChainWebpack:
		d.ChainWebpack = v
	case OptionEnhanceDevServer:
		d.EnhanceDevServer = v
	case OptionExtendMarkdown:
		d.ExtendMarkdown = v
	case OptionExtendPageData:
		d.ExtendPageData = v
	case OptionEnhanceAppFiles:
		d.EnhanceAppFiles = v
	case OptionOutFiles:
		d.OutFiles = v
	case OptionClientDynamicModules:
		d.ClientDynamicModules = v
	case OptionClientRootMixin:
		d.ClientRootMixin = v
	case OptionAdditionalPages:
		d.AdditionalPages = v
	case OptionGlobalUIComponents:
		d.GlobalUIComponents = v
	}
}

// DescriptorFromRecord builds a descriptor from a literal record such as a
// plugin entry decoded from YAML or JSON. Keys other than name, enabled and
// the enumerated hook and option names are ignored, as is a non-string name.
// A missing enabled key leaves the plugin enabled; an explicit one is read by
// truthiness, so null, 0 and "" disable it.
func DescriptorFromRecord(record map[string]any) *Descriptor {
	d := &Descriptor{}
	if name, ok := record["name"].(string); ok {
		d.Name = name
	}
	if enabled, ok := record["enabled"]; ok {
		d.Enabled = Bool(truthy(enabled))
	}
	for _, h := range HookNames {
		d.setHook(h, record[string(h)])
	}
	for _, o := range OptionNames {
		d.setOption(o, record[string(o)])
	}
	return d
}

// truthy reports whether an explicit record value enables a plugin: nil,
// false, zero numbers and the empty string do not.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	}
	return true
}

// toDescriptor converts an instantiated seed into a descriptor.
func toDescriptor(v any) (*Descriptor, error) {
	switch d := v.(type) {
	case *Descriptor:
		if d == nil {
			return &Descriptor{}, nil
		}
		cp := *d
		return &cp, nil
	case Descriptor:
		return &d, nil
	case map[string]any:
		return DescriptorFromRecord(d), nil
	case nil:
		return &Descriptor{}, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		record := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			record[iter.Key().String()] = iter.Value().Interface()
		}
		return DescriptorFromRecord(record), nil
	}
	return nil, fmt.Errorf("plugin value of type %T is not a descriptor, record or factory", v)
}
