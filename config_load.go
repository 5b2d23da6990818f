package pressplug

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var configSchemaJSON string

var configSchema = jsonschema.MustCompileString("config.schema.json", configSchemaJSON)

// LoadConfig reads and parses a config file from the given path.
// Supported formats: JSON (.json), YAML (.yaml, .yml). The document is
// checked against the embedded config schema before it is decoded.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
		// yaml.v3 yields Go ints; re-encode so the schema sees JSON values.
		if data, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	case ".json":
	default:
		return nil, fmt.Errorf("unsupported config file extension %q: use .json, .yaml, or .yml", ext)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing JSON config: %w", err)
	}
	if err := configSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("config does not match schema: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// ValidateConfig validates a Config for correctness.
func ValidateConfig(cfg Config) error {
	if cfg.SourceDir == "" {
		return fmt.Errorf("source_dir is required")
	}
	if cfg.Base != "" && (!strings.HasPrefix(cfg.Base, "/") || !strings.HasSuffix(cfg.Base, "/")) {
		return fmt.Errorf("base %q must start and end with a slash", cfg.Base)
	}

	for i, entry := range cfg.Plugins {
		if err := validatePluginEntry(entry); err != nil {
			return fmt.Errorf("plugins[%d]: %w", i, err)
		}
	}

	if cfg.Ledger != nil {
		switch cfg.Ledger.Driver {
		case LedgerSQLite:
		case LedgerPostgres:
			if cfg.Ledger.DSN == "" {
				return fmt.Errorf("ledger driver %q requires a dsn", cfg.Ledger.Driver)
			}
		default:
			return fmt.Errorf("unknown ledger driver: %q", cfg.Ledger.Driver)
		}
	}

	if cfg.Inspect.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.Inspect.Addr); err != nil {
			return fmt.Errorf("inspect addr %q: %w", cfg.Inspect.Addr, err)
		}
	}
	return nil
}

func validatePluginEntry(entry interface{}) error {
	ref := entry
	if pair, ok := entry.([]interface{}); ok {
		if len(pair) == 0 || len(pair) > 2 {
			return fmt.Errorf("expected [plugin] or [plugin, options], got %d elements", len(pair))
		}
		ref = pair[0]
	}
	switch v := ref.(type) {
	case string:
		if v == "" {
			return fmt.Errorf("empty plugin reference")
		}
	case map[string]interface{}:
	default:
		return fmt.Errorf("plugin reference must be a name or a record, got %T", ref)
	}
	return nil
}
