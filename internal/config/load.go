package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/daily-go/internal/feedback"
	"github.com/nibzard/daily-go/internal/kv"
	"github.com/nibzard/daily-go/internal/logging"
	"github.com/nibzard/daily-go/internal/store"
	"github.com/nibzard/daily-go/internal/view"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file
// 3. Project config file
// 4. Environment variables
// 5. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}

	// 1. Set defaults
	setDefaults(cfg)

	// 2. Try to load from user config file
	if path := findUserConfigFile(); path != "" {
		if err := loadConfigFile(cfg, path, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", path, err)
		}
	}

	// 3. Try to load from project config file (overrides user config)
	if path := findProjectConfigFile(); path != "" {
		if err := loadConfigFile(cfg, path, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", path, err)
		}
	}

	// 4. Override from environment
	loadFromEnv(cfg)

	// 5. Parse CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 6. Compute derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadConfigFile decodes TOML from path over cfg and records the keys the
// file defined.
func loadConfigFile(cfg *Config, path string, source ConfigSource) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	for _, field := range Fields() {
		if md.IsDefined(field) {
			cfg.Sources[field] = source
		}
	}
	cfg.ConfigFiles = append(cfg.ConfigFiles, path)
	return nil
}

// finalizeConfig normalizes values and expands paths.
func finalizeConfig(cfg *Config) error {
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.InsertOrder = strings.ToLower(strings.TrimSpace(cfg.InsertOrder))
	cfg.Feedback = strings.ToLower(strings.TrimSpace(cfg.Feedback))

	dataDir := expandPath(cfg.DataDir)
	if dataDir == "" {
		return fmt.Errorf("data_dir is empty")
	}
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return fmt.Errorf("resolving data_dir: %w", err)
	}
	cfg.DataDir = abs

	if cfg.LogFile != "" {
		logFile := expandPath(cfg.LogFile)
		if !filepath.IsAbs(logFile) {
			logFile = filepath.Join(cfg.DataDir, logFile)
		}
		cfg.LogFile = logFile
	}

	return nil
}

// Validate checks enumerated values and the slot key.
func (c *Config) Validate() error {
	var problems []string
	if !contains(kv.Backends(), c.Backend) {
		problems = append(problems, fmt.Sprintf("backend %q (expected %s)", c.Backend, strings.Join(kv.Backends(), "|")))
	}
	if err := kv.ValidateKey(c.SlotKey); err != nil {
		problems = append(problems, fmt.Sprintf("slot_key: %v", err))
	}
	if c.InsertOrder != string(store.Append) && c.InsertOrder != string(store.Prepend) {
		problems = append(problems, fmt.Sprintf("insert_order %q (expected append|prepend)", c.InsertOrder))
	}
	if _, err := view.ParseSort(c.Sort); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := feedback.New(c.Feedback, c.FeedbackCommand, nil, nil); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// LoggingOptions maps the log_* settings onto logging.Options.
func (c *Config) LoggingOptions() logging.Options {
	opts := logging.DefaultOptions()
	opts.Level = c.LogLevel
	opts.Format = c.LogFormat
	opts.File = c.LogFile
	opts.Timestamps = c.LogTimestamps
	opts.Caller = c.LogCaller
	return opts
}

// expandPath expands environment variables and a leading ~ in paths.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	expanded := os.ExpandEnv(p)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") || strings.HasPrefix(expanded, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return expanded
		}
		if expanded == "~" {
			return home
		}
		return filepath.Join(home, expanded[2:])
	}
	return expanded
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
