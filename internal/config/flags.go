package config

import "flag"

// flagFields maps global flag names to config keys.
var flagFields = map[string]string{
	"backend":      "backend",
	"data-dir":     "data_dir",
	"key":          "slot_key",
	"insert-order": "insert_order",
	"sort":         "sort",
	"feedback":     "feedback",
	"log-level":    "log_level",
	"log-format":   "log_format",
	"log-file":     "log_file",
}

// parseFlags defines the global flags on fs, parses args, and records which
// flags were set explicitly.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	if fs == nil {
		fs = flag.NewFlagSet("daily", flag.ContinueOnError)
	}

	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "Storage backend (file|sqlite|memory)")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Data directory")
	fs.StringVar(&cfg.SlotKey, "key", cfg.SlotKey, "Key the task list is stored under")
	fs.StringVar(&cfg.InsertOrder, "insert-order", cfg.InsertOrder, "Where new tasks go (append|prepend)")
	fs.StringVar(&cfg.Sort, "sort", cfg.Sort, "Default list order (insertion|newest|title)")
	fs.StringVar(&cfg.Feedback, "feedback", cfg.Feedback, "Feedback on toggle/delete (none|bell|hook)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text|json|logfmt)")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file (rotated)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if field, ok := flagFields[f.Name]; ok {
			cfg.Sources[field] = SourceFlag
		}
	})
	return nil
}
