// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (~/.daily/daily.toml or OS-specific config directory)
// 3. Project config file (daily.toml or .daily.toml in the working directory)
// 4. Environment variables (DAILY_*)
// 5. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
// The source of every value is recorded in Config.Sources.
//
// User-level config locations:
// - ~/.daily/daily.toml (preferred)
// - Windows: %APPDATA%\daily\daily.toml
// - macOS: ~/Library/Application Support/daily/daily.toml
// - Linux/BSD: $XDG_CONFIG_HOME/daily/daily.toml or ~/.config/daily/daily.toml
package config
