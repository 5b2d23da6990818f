package plugin

import (
	"context"
	"fmt"
)

// Entry is one contribution recorded on a hook or option.
type Entry struct {
	Contributor string
	Value       any
}

// Hook is an ordered list of callbacks fired by the pipeline at one lifecycle
// stage.
type Hook struct {
	name    HookName
	entries []Entry
}

// NewHook creates an empty hook.
func NewHook(name HookName) *Hook {
	return &Hook{name: name}
}

// Name returns the lifecycle stage the hook belongs to.
func (h *Hook) Name() HookName { return h.name }

// Tap appends fn under contributor. Callers validate fn first; Tap refuses
// anything that is not a func so a hook never stores another kind of value.
func (h *Hook) Tap(contributor string, fn any) error {
	if isAbsent(fn) || rawKind(fn) != string(KindFunction) {
		return fmt.Errorf("hook %s: %w: %T", h.name, ErrNotCallable, fn)
	}
	h.entries = append(h.entries, Entry{Contributor: contributor, Value: fn})
	return nil
}

// Invoke calls every tapped callback in registration order, forwarding args.
// It stops at the first callback that fails.
func (h *Hook) Invoke(ctx context.Context, args ...any) error {
	for _, e := range h.entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := call(ctx, e.Value, args); err != nil {
			return fmt.Errorf("hook %s: plugin %s: %w", h.name, e.Contributor, err)
		}
	}
	return nil
}

// Entries returns a copy of the tapped callbacks in order.
func (h *Hook) Entries() []Entry {
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Contributors returns the contributor of each entry in order.
func (h *Hook) Contributors() []string {
	names := make([]string, len(h.entries))
	for i, e := range h.entries {
		names[i] = e.Contributor
	}
	return names
}

// Len returns the number of tapped callbacks.
func (h *Hook) Len() int { return len(h.entries) }
