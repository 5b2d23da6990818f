package plugin

// SchemaVersion identifies the set of hook and option names below. Adding a
// lifecycle stage or a configuration point bumps it.
const SchemaVersion = 1

// HookName identifies a lifecycle stage plugins can tap.
type HookName string

// HookName constants define the lifecycle stages fired by the build pipeline.
const (
	HookReady     HookName = "ready"
	HookCompiled  HookName = "compiled"
	HookUpdated   HookName = "updated"
	HookGenerated HookName = "generated"
)

// HookNames lists every hook in dispatch order.
var HookNames = []HookName{
	HookReady,
	HookCompiled,
	HookUpdated,
	HookGenerated,
}

// OptionName identifies a configuration point plugins can contribute to.
type OptionName string

// OptionName constants define the configuration points consumed by the build
// pipeline.
const (
	OptionChainWebpack         OptionName = "chainWebpack"
	OptionEnhanceDevServer     OptionName = "enhanceDevServer"
	OptionExtendMarkdown       OptionName = "extendMarkdown"
	OptionExtendPageData       OptionName = "extendPageData"
	OptionEnhanceAppFiles      OptionName = "enhanceAppFiles"
	OptionOutFiles             OptionName = "outFiles"
	OptionClientDynamicModules OptionName = "clientDynamicModules"
	OptionClientRootMixin      OptionName = "clientRootMixin"
	OptionAdditionalPages      OptionName = "additionalPages"
	OptionGlobalUIComponents   OptionName = "globalUIComponents"
)

// OptionNames lists every option in dispatch order.
var OptionNames = []OptionName{
	OptionChainWebpack,
	OptionEnhanceDevServer,
	OptionExtendMarkdown,
	OptionExtendPageData,
	OptionEnhanceAppFiles,
	OptionOutFiles,
	OptionClientDynamicModules,
	OptionClientRootMixin,
	OptionAdditionalPages,
	OptionGlobalUIComponents,
}

// IsValid reports whether h is one of the enumerated hooks.
func (h HookName) IsValid() bool {
	for _, n := range HookNames {
		if n == h {
			return true
		}
	}
	return false
}

// IsValid reports whether o is one of the enumerated options.
func (o OptionName) IsValid() bool {
	for _, n := range OptionNames {
		if n == o {
			return true
		}
	}
	return false
}
