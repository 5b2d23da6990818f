package pressplug

// Config holds the configuration of a site build.
type Config struct {
	// SourceDir is the directory holding the site sources.
	SourceDir string `json:"source_dir" yaml:"source_dir"`
	// OutDir is the build output directory. Defaults to <source_dir>/.press/dist.
	OutDir string `json:"out_dir,omitempty" yaml:"out_dir,omitempty"`
	// Base is the public path the site is served under. Defaults to "/".
	Base string `json:"base,omitempty" yaml:"base,omitempty"`
	// Production marks a production build (exposed to plugins as isProd).
	Production bool `json:"production,omitempty" yaml:"production,omitempty"`
	// Context holds extra ambient values visible to every plugin factory.
	Context map[string]interface{} `json:"context,omitempty" yaml:"context,omitempty"`
	// Plugins is the ordered plugin list. Each entry is a reference (catalog
	// id or inline record) or a [reference, options] pair.
	Plugins []interface{} `json:"plugins,omitempty" yaml:"plugins,omitempty"`
	// Ledger configures persistence of registration outcomes (optional).
	Ledger *LedgerConfig `json:"ledger,omitempty" yaml:"ledger,omitempty"`
	// Inspect configures the read-only inspect API used by serve.
	Inspect InspectConfig `json:"inspect,omitempty" yaml:"inspect,omitempty"`
}

// LedgerConfig selects the registration ledger backend.
type LedgerConfig struct {
	Driver LedgerDriver `json:"driver" yaml:"driver"`
	DSN    string       `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// LedgerDriver names a ledger storage backend.
type LedgerDriver string

// LedgerDriver constants define the supported ledger backends.
const (
	LedgerSQLite   LedgerDriver = "sqlite"
	LedgerPostgres LedgerDriver = "postgres"
)

// InspectConfig configures the inspect API listener.
type InspectConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
	// Token, when set, is required as a bearer token on every request
	// except /health.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
}

// DefaultInspectAddr is the listen address used when none is configured.
const DefaultInspectAddr = ":8040"
