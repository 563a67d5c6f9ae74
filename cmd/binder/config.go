// Config loading for the binder CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/binder/internal/paths"
	"github.com/mesh-intelligence/binder/pkg/mongodb"
	"github.com/mesh-intelligence/binder/pkg/registry"
	"github.com/mesh-intelligence/binder/pkg/sqlite"
	"github.com/mesh-intelligence/binder/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// Top-level config keys.
	cfgKeyBackend     = "backend"
	cfgKeyDataDir     = "data_dir"
	cfgKeyConnections = "connections"

	// The embedded backend works without a running server, which makes
	// it the right out-of-the-box default for a CLI.
	defaultBackend = "sqlite"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# binder CLI configuration

# Storage backend: sqlite (embedded) or mongodb.
backend: sqlite

# Data directory for the embedded backend (optional; overridable by
# --data-dir flag or BINDER_DATA_DIR).
# data_dir:

# Connection aliases. An empty bag connects to the backend's default
# address. Recognized keys: name, host, port, username, password,
# auth_source, auth_mechanism, params.
connections:
  default: {}
`

// loadConfig reads config.yaml from the resolved config directory. The
// directory and a default config.yaml are created on first run; a missing
// config.yaml is not an error.
func loadConfig(flagDir string) (*viper.Viper, error) {
	dir, err := paths.ResolveConfigDir(flagDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(dir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does
// not exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// buildRegistry constructs a registry for the configured backend and
// returns it together with the parsed connection settings.
func buildRegistry(v *viper.Viper) (*registry.Registry, types.Settings, error) {
	settings, err := connectionSettings(v)
	if err != nil {
		return nil, nil, err
	}

	backend := v.GetString(cfgKeyBackend)
	switch backend {
	case "mongodb":
		return registry.New(registry.WithOpener(mongodb.Open)), settings, nil
	case "sqlite":
		root, err := paths.ResolveDataDir(dataDir, v.GetString(cfgKeyDataDir))
		if err != nil {
			return nil, nil, fmt.Errorf("resolve data dir: %w", err)
		}
		// Point connections without an explicit location at the
		// resolved data directory.
		for alias, cfg := range settings {
			if cfg.Host != "" {
				continue
			}
			if _, ok := cfg.Params["path"]; ok {
				continue
			}
			cfg.Host = root
			settings[alias] = cfg
		}
		return registry.New(registry.WithOpener(sqlite.Open)), settings, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q (valid: sqlite, mongodb)", backend)
	}
}

// connectionSettings parses the connections subtree; a config without one
// yields a single "default" alias on the backend's default address.
func connectionSettings(v *viper.Viper) (types.Settings, error) {
	value := v.Get(cfgKeyConnections)
	if value == nil {
		return types.Settings{"default": {}}, nil
	}
	tree, err := cast.ToStringMapE(value)
	if err != nil {
		return nil, fmt.Errorf("parse connections: %w", err)
	}
	settings, err := registry.FromTree(tree)
	if err != nil {
		return nil, fmt.Errorf("parse connections: %w", err)
	}
	if len(settings) == 0 {
		settings = types.Settings{"default": {}}
	}
	return settings, nil
}
