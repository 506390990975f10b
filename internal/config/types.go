package config

import (
	"path/filepath"

	"github.com/nibzard/daily-go/internal/kv"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// Default values.
const (
	DefaultBackend     = kv.BackendFile
	DefaultDataDir     = "~/.daily"
	DefaultSlotKey     = "tasks"
	DefaultInsertOrder = "append"
	DefaultSort        = "insertion"
	DefaultFeedback    = "bell"
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "text"
)

// Config holds the full configuration for daily.
type Config struct {
	// Storage
	Backend string `toml:"backend"`
	DataDir string `toml:"data_dir"`
	SlotKey string `toml:"slot_key"`

	// List behavior
	InsertOrder string `toml:"insert_order"`
	Sort        string `toml:"sort"`

	// Feedback on toggle/delete
	Feedback        string `toml:"feedback"`
	FeedbackCommand string `toml:"feedback_command"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogFile       string `toml:"log_file"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Files that contributed to this config, in load order (computed).
	ConfigFiles []string `toml:"-"`

	// Sources maps TOML key names to where their value came from (computed).
	Sources map[string]ConfigSource `toml:"-"`
}

// Fields returns the configurable keys in display order.
func Fields() []string {
	return []string{
		"backend",
		"data_dir",
		"slot_key",
		"insert_order",
		"sort",
		"feedback",
		"feedback_command",
		"log_level",
		"log_format",
		"log_file",
		"log_timestamps",
		"log_caller",
	}
}

// SlotPath returns the file holding the task list when the file backend is
// in use, and "" otherwise.
func (c *Config) SlotPath() string {
	if c.Backend != kv.BackendFile {
		return ""
	}
	return filepath.Join(c.DataDir, c.SlotKey+kv.FileExt)
}

// Source returns where key's value came from.
func (c *Config) Source(key string) ConfigSource {
	if s, ok := c.Sources[key]; ok {
		return s
	}
	return SourceDefault
}

func setDefaults(cfg *Config) {
	cfg.Backend = DefaultBackend
	cfg.DataDir = DefaultDataDir
	cfg.SlotKey = DefaultSlotKey
	cfg.InsertOrder = DefaultInsertOrder
	cfg.Sort = DefaultSort
	cfg.Feedback = DefaultFeedback
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.Sources = make(map[string]ConfigSource, len(Fields()))
	for _, field := range Fields() {
		cfg.Sources[field] = SourceDefault
	}
}
