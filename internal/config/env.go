package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// envPrefix is prepended to the upper-cased key to form the variable name.
const envPrefix = "TODOMINI_"

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return envPrefix + strings.ToUpper(key)
}

// readDotEnv reads the .env file in dir. A missing file yields nil.
// Only TODOMINI_* entries are kept.
func readDotEnv(dir string) (map[string]string, error) {
	path := filepath.Join(dir, DefaultEnvFile)
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	for k := range vars {
		if !strings.HasPrefix(k, envPrefix) {
			delete(vars, k)
		}
	}
	return vars, nil
}

// loadFromEnv overrides config from the .env map and then from the process
// environment, which wins over .env.
func loadFromEnv(cfg *Config, dotenv map[string]string, sources map[string]ConfigSource) {
	for _, key := range Keys() {
		name := EnvName(key)
		if v, ok := dotenv[name]; ok && v != "" {
			cfg.set(key, v)
			sources[key] = SourceDotEnv
		}
		if v := os.Getenv(name); v != "" {
			cfg.set(key, v)
			sources[key] = SourceEnv
		}
	}
}

func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
