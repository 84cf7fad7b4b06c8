package config

import (
	"flag"
	"strings"
)

// flagNames maps config keys to CLI flag names.
var flagNames = map[string]string{
	"data_dir":       "data-dir",
	"storage":        "storage",
	"store_key":      "store-key",
	"default_filter": "filter",
	"log_level":      "log-level",
	"log_format":     "log-format",
	"log_timestamps": "log-timestamps",
	"log_caller":     "log-caller",
	"log_dir":        "log-dir",
}

// registerFlags defines the config flags on fs with the current values of
// cfg as defaults.
func registerFlags(fs *flag.FlagSet, cfg *Config) *flagValues {
	v := &flagValues{}
	fs.StringVar(&v.dataDir, flagNames["data_dir"], cfg.DataDir, "Directory for stored tasks")
	fs.StringVar(&v.storage, flagNames["storage"], cfg.Storage, "Storage backend: file, sqlite, memory")
	fs.StringVar(&v.storeKey, flagNames["store_key"], cfg.StoreKey, "Key the task list is stored under")
	fs.StringVar(&v.filter, flagNames["default_filter"], cfg.DefaultFilter, "Category filter: all, work, personal, other")
	fs.StringVar(&v.logLevel, flagNames["log_level"], cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&v.logFormat, flagNames["log_format"], cfg.LogFormat, "Log format: text, json, logfmt")
	fs.BoolVar(&v.logTimestamps, flagNames["log_timestamps"], cfg.LogTimestamps, "Include timestamps in log output")
	fs.BoolVar(&v.logCaller, flagNames["log_caller"], cfg.LogCaller, "Include caller location in log output")
	fs.StringVar(&v.logDir, flagNames["log_dir"], cfg.LogDir, "Directory for per-run JSON log files")
	return v
}

// flagValues receives parsed config flag values.
type flagValues struct {
	dataDir, storage, storeKey, filter string
	logLevel, logFormat, logDir        string
	logTimestamps, logCaller           bool
}

// parseFlags parses args on fs and applies explicitly set config flags.
// If fs is nil only the config flags are recognized.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("todomini", flag.ContinueOnError)
	}
	v := registerFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	apply := func(key string, fn func()) {
		if set[flagNames[key]] {
			fn()
			sources[key] = SourceFlag
		}
	}
	apply("data_dir", func() { cfg.DataDir = v.dataDir })
	apply("storage", func() { cfg.Storage = strings.TrimSpace(v.storage) })
	apply("store_key", func() { cfg.StoreKey = v.storeKey })
	apply("default_filter", func() { cfg.DefaultFilter = v.filter })
	apply("log_level", func() { cfg.LogLevel = v.logLevel })
	apply("log_format", func() { cfg.LogFormat = v.logFormat })
	apply("log_timestamps", func() { cfg.LogTimestamps = v.logTimestamps })
	apply("log_caller", func() { cfg.LogCaller = v.logCaller })
	apply("log_dir", func() { cfg.LogDir = v.logDir })
	return nil
}
