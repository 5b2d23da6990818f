// Package backtotop provides a plugin that adds a floating back-to-top
// button to every page. Register it with a blank import:
//
//	_ "github.com/ferro-labs/pressplug/internal/plugins/backtotop"
package backtotop

import (
	"fmt"

	"github.com/ferro-labs/pressplug/plugin"
)

// ID is the catalog identifier of the plugin.
const ID = "@press/plugin-back-to-top"

// ComponentName is the global UI component the plugin contributes.
const ComponentName = "BackToTop"

func init() {
	plugin.MustRegister(ID, plugin.Factory(New))
}

// BackToTop configures the button.
type BackToTop struct {
	threshold int
	component string
}

// New is the plugin factory.
func New(options any, _ *plugin.Context) (*plugin.Descriptor, error) {
	b := &BackToTop{}
	config, _ := options.(map[string]interface{})
	if err := b.Init(config); err != nil {
		return nil, err
	}
	return &plugin.Descriptor{
		Name:               "back-to-top",
		GlobalUIComponents: b.component,
		EnhanceAppFiles:    []any{b.AppFile},
	}, nil
}

// Init configures the plugin from the provided options map.
func (b *BackToTop) Init(config map[string]interface{}) error {
	b.threshold = 300
	// JSON delivers numeric values as float64; YAML delivers int.
	switch v := config["threshold"].(type) {
	case int:
		b.threshold = v
	case float64:
		b.threshold = int(v)
	}
	if b.threshold < 0 {
		return fmt.Errorf("back-to-top: threshold must not be negative, got %d", b.threshold)
	}
	b.component = ComponentName
	if name, ok := config["component"].(string); ok && name != "" {
		b.component = name
	}
	return nil
}

// AppFile returns the client enhancer registering the component.
func (b *BackToTop) AppFile() map[string]any {
	return map[string]any{
		"name": "back-to-top.js",
		"content": fmt.Sprintf(
			"export default ({ Vue }) => { Vue.prototype.$backToTopThreshold = %d }\n",
			b.threshold,
		),
	}
}
