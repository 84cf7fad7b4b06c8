// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (~/.todomini/todomini.toml or OS-specific config directory)
// 3. Project config file (todomini.toml or .todomini.toml in the working directory)
// 4. A .env file in the working directory (TODOMINI_* keys only)
// 5. Environment variables (TODOMINI_*)
// 6. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
//
// User-level config locations:
// - ~/.todomini/todomini.toml (preferred)
// - Windows: %APPDATA%\todomini\todomini.toml
// - macOS: ~/Library/Application Support/todomini/todomini.toml
// - Linux/BSD: $XDG_CONFIG_HOME/todomini/todomini.toml or ~/.config/todomini/todomini.toml
//
// Project-level config locations (overrides user config):
// - ./todomini.toml (preferred)
// - ./.todomini.toml
package config
