package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/todomini/internal/kv"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.todomini/todomini.toml or OS-specific config dir)
// 3. Project config file (todomini.toml or .todomini.toml in current directory)
// 4. .env file in the current directory
// 5. Environment variables
// 6. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cws, err := LoadWithSources(fs, args)
	if err != nil {
		return nil, err
	}
	return cws.Config, nil
}

// LoadWithSources loads configuration and tracks the source of each value.
func LoadWithSources(fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	cws := &ConfigWithSources{
		Config:  &Config{ProjectRoot: wd},
		Sources: make(map[string]ConfigSource),
	}
	cfg := cws.Config

	// 1. Set defaults (all fields start with default source)
	setDefaults(cfg)
	for _, key := range Keys() {
		cws.Sources[key] = SourceDefault
	}

	// 2. User config file
	if path := findUserConfigFile(); path != "" {
		if err := loadConfigFile(cfg, path, cws.Sources, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", path, err)
		}
		cws.Files = append(cws.Files, path)
	}

	// 3. Project config file (overrides user config)
	if path := findProjectConfigFile(wd); path != "" {
		if err := loadConfigFile(cfg, path, cws.Sources, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", path, err)
		}
		cws.Files = append(cws.Files, path)
	}

	// 4-5. .env file, then environment
	dotenv, err := readDotEnv(wd)
	if err != nil {
		return nil, err
	}
	loadFromEnv(cfg, dotenv, cws.Sources)

	// 6. Parse CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args, cws.Sources); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 7. Compute derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return cws, nil
}

// loadConfigFile decodes the TOML file at path over cfg and marks every key
// the file defines with source.
func loadConfigFile(cfg *Config, path string, sources map[string]ConfigSource, source ConfigSource) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	for _, key := range Keys() {
		if md.IsDefined(key) {
			sources[key] = source
		}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// finalizeConfig computes derived values and validates settings.
func finalizeConfig(cfg *Config) error {
	cfg.DataDir = expandPath(strings.TrimSpace(cfg.DataDir))
	cfg.LogDir = expandPath(strings.TrimSpace(cfg.LogDir))
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	cfg.StoreKey = strings.TrimSpace(cfg.StoreKey)

	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(cfg.ProjectRoot, cfg.DataDir)
	}
	if cfg.LogDir != "" && !filepath.IsAbs(cfg.LogDir) {
		cfg.LogDir = filepath.Join(cfg.ProjectRoot, cfg.LogDir)
	}
	if !slices.Contains(kv.Backends(), cfg.Storage) {
		return fmt.Errorf("invalid storage %q, must be one of: %s", cfg.Storage, strings.Join(kv.Backends(), ", "))
	}
	if cfg.StoreKey == "" {
		return fmt.Errorf("store_key must not be empty")
	}
	return nil
}

// GetConfigFile returns the highest-priority config file that was read.
func (cws *ConfigWithSources) GetConfigFile() string {
	if len(cws.Files) == 0 {
		return ""
	}
	return cws.Files[len(cws.Files)-1]
}

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# todomini configuration file
# Values can be overridden by TODOMINI_* environment variables or CLI flags

# Directory for stored tasks (supports ~ expansion and %VAR% on Windows)
data_dir = "~/.todomini"

# Storage backend: file, sqlite or memory
storage = "file"

# Key the task list is stored under
store_key = "TodoMiniTodos"

# Category filter used by list and tui: all, work, personal, other
default_filter = "all"

# Logging
log_level = "warn"
log_format = "text"
log_timestamps = false
log_caller = false

# Write a JSON log file per run under this directory
# log_dir = "~/.todomini/logs"
`
}
