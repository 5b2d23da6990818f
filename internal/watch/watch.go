// Package watch reports changes to a single config file.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ferro-labs/pressplug/internal/logging"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 200 * time.Millisecond

// Watcher calls back when a file is written, created or replaced. The
// parent directory is watched so editors that save by rename are seen.
type Watcher struct {
	path     string
	debounce time.Duration
}

// New returns a watcher for path. A non-positive debounce uses
// DefaultDebounce.
func New(path string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{path: filepath.Clean(path), debounce: debounce}
}

// Run blocks until ctx is done, calling onChange once per burst of changes.
// onChange runs on the watcher goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	log := logging.FromContext(ctx).With("path", w.path)
	log.Info("watching config file")

	pending := time.NewTimer(w.debounce)
	pending.Stop()
	defer pending.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug("config file changed", "op", event.Op.String())
			pending.Reset(w.debounce)
		case <-pending.C:
			onChange(ctx)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", "error", err)
		}
	}
}
