package config

import (
	"fmt"
	"strconv"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceDotEnv   ConfigSource = ".env file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, lowest priority first.
	Files []string
}

// Default values.
const (
	DefaultDataDir   = "~/.todomini"
	DefaultStorage   = "file"
	DefaultStoreKey  = "TodoMiniTodos"
	DefaultFilter    = "all"
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
	DefaultEnvFile   = ".env"
)

// Config holds the full configuration for todomini.
type Config struct {
	// Storage
	DataDir  string `toml:"data_dir"`
	Storage  string `toml:"storage"`
	StoreKey string `toml:"store_key"`

	// Views
	DefaultFilter string `toml:"default_filter"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`
	LogDir        string `toml:"log_dir"`

	// Working directory (computed)
	ProjectRoot string `toml:"-"`
}

// Keys returns the configurable keys in display order.
func Keys() []string {
	return []string{
		"data_dir",
		"storage",
		"store_key",
		"default_filter",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
		"log_dir",
	}
}

// Value returns the string form of the value stored under key.
func (c *Config) Value(key string) (string, error) {
	switch key {
	case "data_dir":
		return c.DataDir, nil
	case "storage":
		return c.Storage, nil
	case "store_key":
		return c.StoreKey, nil
	case "default_filter":
		return c.DefaultFilter, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	case "log_timestamps":
		return strconv.FormatBool(c.LogTimestamps), nil
	case "log_caller":
		return strconv.FormatBool(c.LogCaller), nil
	case "log_dir":
		return c.LogDir, nil
	}
	return "", fmt.Errorf("unknown config key %q", key)
}

// set assigns a string value to key, parsing booleans.
func (c *Config) set(key, value string) error {
	switch key {
	case "data_dir":
		c.DataDir = value
	case "storage":
		c.Storage = value
	case "store_key":
		c.StoreKey = value
	case "default_filter":
		c.DefaultFilter = value
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	case "log_timestamps":
		c.LogTimestamps = boolFromString(value)
	case "log_caller":
		c.LogCaller = boolFromString(value)
	case "log_dir":
		c.LogDir = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.DataDir = DefaultDataDir
	cfg.Storage = DefaultStorage
	cfg.StoreKey = DefaultStoreKey
	cfg.DefaultFilter = DefaultFilter
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.LogTimestamps = false
	cfg.LogCaller = false
	cfg.LogDir = ""
}

// Default returns a config holding only the built-in defaults.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}
