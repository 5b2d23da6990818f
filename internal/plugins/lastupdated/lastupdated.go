// Package lastupdated provides a plugin that stamps each page with the time
// its source file last changed. Register it with a blank import:
//
//	_ "github.com/ferro-labs/pressplug/internal/plugins/lastupdated"
package lastupdated

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ferro-labs/pressplug/plugin"
)

// ID is the catalog identifier of the plugin.
const ID = "@press/plugin-last-updated"

func init() {
	plugin.MustRegister(ID, plugin.Factory(New))
}

// LastUpdated adds a lastUpdated field to page data.
type LastUpdated struct {
	sourceDir string
	layout    string
	stat      func(name string) (os.FileInfo, error)
}

// New is the plugin factory. It reads the source directory from ctx.
func New(options any, ctx *plugin.Context) (*plugin.Descriptor, error) {
	l := &LastUpdated{sourceDir: ctx.GetString(plugin.KeySourceDir), stat: os.Stat}
	config, _ := options.(map[string]interface{})
	if err := l.Init(config); err != nil {
		return nil, err
	}
	return &plugin.Descriptor{
		Name:           "last-updated",
		ExtendPageData: l.ExtendPageData,
	}, nil
}

// Init configures the plugin from the provided options map.
func (l *LastUpdated) Init(config map[string]interface{}) error {
	l.layout = time.RFC3339
	if format, ok := config["format"].(string); ok {
		switch format {
		case "", "rfc3339":
		case "date":
			l.layout = time.DateOnly
		case "datetime":
			l.layout = time.DateTime
		default:
			return fmt.Errorf("last-updated: unknown format %q", format)
		}
	}
	return nil
}

// ExtendPageData sets page["lastUpdated"] from the modification time of the
// file named by page["relativePath"]. Pages without a source file are left
// alone.
func (l *LastUpdated) ExtendPageData(page map[string]any) error {
	rel, ok := page["relativePath"].(string)
	if !ok || rel == "" {
		return nil
	}
	info, err := l.stat(filepath.Join(l.sourceDir, rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("last-updated: %w", err)
	}
	page["lastUpdated"] = info.ModTime().UTC().Format(l.layout)
	return nil
}
