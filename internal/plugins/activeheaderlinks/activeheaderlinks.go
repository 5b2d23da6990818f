// Package activeheaderlinks provides a plugin that keeps the page URL hash in
// sync with the header currently scrolled into view. Register it with a
// blank import:
//
//	_ "github.com/ferro-labs/pressplug/internal/plugins/activeheaderlinks"
package activeheaderlinks

import (
	"encoding/json"
	"fmt"

	"github.com/ferro-labs/pressplug/plugin"
)

// ID is the catalog identifier of the plugin.
const ID = "@press/plugin-active-header-links"

// MixinPath is the client root mixin contributed by the plugin.
const MixinPath = ID + "/mixin.js"

func init() {
	plugin.MustRegister(ID, plugin.Factory(New))
}

// ActiveHeaderLinks holds the selectors and offset the client mixin uses.
type ActiveHeaderLinks struct {
	SidebarLinkSelector  string `json:"sidebarLinkSelector"`
	HeaderAnchorSelector string `json:"headerAnchorSelector"`
	HeaderTopOffset      int    `json:"headerTopOffset"`
}

// New is the plugin factory.
func New(options any, _ *plugin.Context) (*plugin.Descriptor, error) {
	a := &ActiveHeaderLinks{}
	config, _ := options.(map[string]interface{})
	if err := a.Init(config); err != nil {
		return nil, err
	}
	return &plugin.Descriptor{
		Name:                 "active-header-links",
		ClientRootMixin:      MixinPath,
		ClientDynamicModules: a.OptionsModule,
	}, nil
}

// Init configures the plugin from the provided options map.
func (a *ActiveHeaderLinks) Init(config map[string]interface{}) error {
	a.SidebarLinkSelector = ".sidebar-link"
	if v, ok := config["sidebarLinkSelector"].(string); ok && v != "" {
		a.SidebarLinkSelector = v
	}
	a.HeaderAnchorSelector = ".header-anchor"
	if v, ok := config["headerAnchorSelector"].(string); ok && v != "" {
		a.HeaderAnchorSelector = v
	}
	a.HeaderTopOffset = 90 // default
	if v, ok := config["headerTopOffset"]; ok {
		switch val := v.(type) {
		case float64:
			a.HeaderTopOffset = int(val)
		case int:
			a.HeaderTopOffset = val
		default:
			return fmt.Errorf("active-header-links: headerTopOffset must be a number, got %T", v)
		}
	}
	return nil
}

// OptionsModule returns the client module exposing the configured options to
// the mixin.
func (a *ActiveHeaderLinks) OptionsModule() (map[string]any, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("active-header-links: encode options: %w", err)
	}
	return map[string]any{
		"name":    "active-header-links-options.js",
		"content": "export default " + string(data) + "\n",
	}, nil
}
