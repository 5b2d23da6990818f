package plugin

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by resolution and invocation.
var (
	ErrUnknownPlugin = errors.New("unknown plugin")
	ErrNoResolver    = errors.New("no resolver configured for plugin identifier")
	ErrSignature     = errors.New("callback signature mismatch")
	ErrNotCallable   = errors.New("value is not callable")
)

// RegistrationError reports the entry that aborted a registration pass.
type RegistrationError struct {
	// Index is the position of the failing entry in the plugin list.
	Index int
	// Plugin is the best available display name for the entry.
	Plugin string
	Err    error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("plugin %s (entry %d): %v", e.Plugin, e.Index, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }
