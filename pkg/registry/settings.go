// Settings parsing for the connection registry.
//
// Raw settings arrive as a mapping from connection alias to a bag of
// configuration keys, either built in code or loaded from a config file.
// Recognized keys: NAME, HOST, PORT, USERNAME, PASSWORD,
// AUTHENTICATION_SOURCE or AUTH_SOURCE, AUTH-MECHANISM or AUTH_MECHANISM,
// and OPTIONAL_PARAMETERS. Matching is case-insensitive and treats "-" and
// "_" as equivalent; unrecognized keys are ignored.
package registry

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/binder/pkg/types"
)

// ParseSettings converts raw per-alias configuration bags into typed
// connection settings. An empty bag for an alias is legal and yields a
// zero ConnectionConfig, which connects to the backend's default address.
func ParseSettings(raw map[string]map[string]any) (types.Settings, error) {
	settings := make(types.Settings, len(raw))
	for alias, bag := range raw {
		cfg, err := parseConnection(bag)
		if err != nil {
			return nil, fmt.Errorf("settings for %q: %w", alias, err)
		}
		settings[alias] = cfg
	}
	return settings, nil
}

// parseConnection reads one alias's configuration bag.
func parseConnection(bag map[string]any) (types.ConnectionConfig, error) {
	var cfg types.ConnectionConfig
	for key, value := range bag {
		switch normalizeKey(key) {
		case "name":
			cfg.Name = cast.ToString(value)
		case "host":
			cfg.Host = cast.ToString(value)
		case "port":
			port, err := cast.ToIntE(value)
			if err != nil {
				return cfg, fmt.Errorf("invalid PORT %v: %w", value, err)
			}
			cfg.Port = port
		case "username":
			cfg.Username = cast.ToString(value)
		case "password":
			cfg.Password = cast.ToString(value)
		case "authentication_source", "auth_source":
			cfg.AuthSource = cast.ToString(value)
		case "auth_mechanism":
			cfg.AuthMechanism = cast.ToString(value)
		case "optional_parameters", "params":
			params, err := cast.ToStringMapE(value)
			if err != nil {
				return cfg, fmt.Errorf("invalid OPTIONAL_PARAMETERS: %w", err)
			}
			cfg.Params = params
		}
	}
	return cfg, nil
}

// normalizeKey lower-cases a settings key and folds "-" into "_" so that
// AUTH-MECHANISM and auth_mechanism address the same field.
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "-", "_")
}

// LoadSettings reads connection settings from a YAML config file (JSON is
// valid YAML). The file maps aliases to configuration bags:
//
//	default:
//	  name: appdb
//	  host: db.internal
//	analytics: {}
func LoadSettings(path string) (types.Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("parsing settings file: %w", err)
	}
	return FromTree(tree)
}

// FromTree converts a raw settings tree, alias to configuration bag, into
// typed connection settings. A nil or empty bag is legal; the alias keeps
// its zero ConnectionConfig rather than being dropped. Trees typically
// come from a YAML file or a viper config subtree.
func FromTree(tree map[string]any) (types.Settings, error) {
	raw := make(map[string]map[string]any, len(tree))
	for alias, value := range tree {
		if value == nil {
			raw[alias] = map[string]any{}
			continue
		}
		bag, err := cast.ToStringMapE(value)
		if err != nil {
			return nil, fmt.Errorf("settings for %q: expected a mapping: %w", alias, err)
		}
		raw[alias] = bag
	}
	return ParseSettings(raw)
}
