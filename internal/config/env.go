package config

import (
	"os"
	"strings"
)

// envBinding ties an environment variable to a config key.
type envBinding struct {
	env   string
	field string
	set   func(*Config, string)
}

func envBindings() []envBinding {
	return []envBinding{
		{"DAILY_BACKEND", "backend", func(c *Config, v string) { c.Backend = v }},
		{"DAILY_DATA_DIR", "data_dir", func(c *Config, v string) { c.DataDir = v }},
		{"DAILY_SLOT_KEY", "slot_key", func(c *Config, v string) { c.SlotKey = v }},
		{"DAILY_INSERT_ORDER", "insert_order", func(c *Config, v string) { c.InsertOrder = v }},
		{"DAILY_SORT", "sort", func(c *Config, v string) { c.Sort = v }},
		{"DAILY_FEEDBACK", "feedback", func(c *Config, v string) { c.Feedback = v }},
		{"DAILY_FEEDBACK_COMMAND", "feedback_command", func(c *Config, v string) { c.FeedbackCommand = v }},
		{"DAILY_LOG_LEVEL", "log_level", func(c *Config, v string) { c.LogLevel = v }},
		{"DAILY_LOG_FORMAT", "log_format", func(c *Config, v string) { c.LogFormat = v }},
		{"DAILY_LOG_FILE", "log_file", func(c *Config, v string) { c.LogFile = v }},
		{"DAILY_LOG_TIMESTAMPS", "log_timestamps", func(c *Config, v string) { c.LogTimestamps = boolFromString(v) }},
		{"DAILY_LOG_CALLER", "log_caller", func(c *Config, v string) { c.LogCaller = boolFromString(v) }},
	}
}

// loadFromEnv overrides config from environment variables.
func loadFromEnv(cfg *Config) {
	for _, b := range envBindings() {
		if v := os.Getenv(b.env); v != "" {
			b.set(cfg, v)
			cfg.Sources[b.field] = SourceEnv
		}
	}
}

// boolFromString parses a boolean from a string.
func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
