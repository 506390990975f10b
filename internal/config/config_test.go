// Package config tests configuration loading.
package config

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// isolate points HOME, XDG_CONFIG_HOME and the working directory at empty
// temp dirs and clears DAILY_* variables.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	for _, b := range envBindings() {
		t.Setenv(b.env, "")
	}
	t.Chdir(t.TempDir())
	return home
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.Backend != DefaultBackend {
		t.Errorf("Backend: got %q, want %q", cfg.Backend, DefaultBackend)
	}
	if cfg.SlotKey != DefaultSlotKey {
		t.Errorf("SlotKey: got %q, want %q", cfg.SlotKey, DefaultSlotKey)
	}
	if cfg.InsertOrder != "append" {
		t.Errorf("InsertOrder: got %q, want append", cfg.InsertOrder)
	}
	if cfg.Feedback != "bell" {
		t.Errorf("Feedback: got %q, want bell", cfg.Feedback)
	}
	for _, field := range Fields() {
		if got := cfg.Source(field); got != SourceDefault {
			t.Errorf("Source(%s): got %q, want default", field, got)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(home, ".daily"); cfg.DataDir != want {
		t.Errorf("DataDir: got %q, want %q", cfg.DataDir, want)
	}
	if want := filepath.Join(home, ".daily", "tasks.json"); cfg.SlotPath() != want {
		t.Errorf("SlotPath: got %q, want %q", cfg.SlotPath(), want)
	}
	if len(cfg.ConfigFiles) != 0 {
		t.Errorf("ConfigFiles: got %v, want none", cfg.ConfigFiles)
	}
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("DAILY_BACKEND", "sqlite")
	t.Setenv("DAILY_INSERT_ORDER", "prepend")
	t.Setenv("DAILY_LOG_CALLER", "yes")

	cfg := &Config{}
	setDefaults(cfg)
	loadFromEnv(cfg)

	if cfg.Backend != "sqlite" {
		t.Errorf("Backend: got %q, want sqlite", cfg.Backend)
	}
	if cfg.InsertOrder != "prepend" {
		t.Errorf("InsertOrder: got %q, want prepend", cfg.InsertOrder)
	}
	if !cfg.LogCaller {
		t.Error("LogCaller: got false, want true")
	}
	if got := cfg.Source("backend"); got != SourceEnv {
		t.Errorf("Source(backend): got %q, want environment", got)
	}
	if got := cfg.Source("sort"); got != SourceDefault {
		t.Errorf("Source(sort): got %q, want default", got)
	}
}

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "daily.toml")

	content := []byte(`slot_key = "work"
sort = "title"
feedback = "none"
`)
	if err := os.WriteFile(configFile, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{}
	setDefaults(cfg)
	if err := loadConfigFile(cfg, configFile, SourceProjFile); err != nil {
		t.Fatalf("loadConfigFile: %v", err)
	}

	if cfg.SlotKey != "work" {
		t.Errorf("SlotKey: got %q, want work", cfg.SlotKey)
	}
	if cfg.Sort != "title" {
		t.Errorf("Sort: got %q, want title", cfg.Sort)
	}
	if cfg.Backend != DefaultBackend {
		t.Errorf("Backend: got %q, want default preserved", cfg.Backend)
	}
	if got := cfg.Source("slot_key"); got != SourceProjFile {
		t.Errorf("Source(slot_key): got %q, want project file", got)
	}
	if got := cfg.Source("backend"); got != SourceDefault {
		t.Errorf("Source(backend): got %q, want default", got)
	}
	if len(cfg.ConfigFiles) != 1 || cfg.ConfigFiles[0] != configFile {
		t.Errorf("ConfigFiles: got %v", cfg.ConfigFiles)
	}
}

func TestLoadConfigFileInvalidTOML(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "daily.toml")
	if err := os.WriteFile(configFile, []byte("backend = \n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{}
	setDefaults(cfg)
	if err := loadConfigFile(cfg, configFile, SourceUserFile); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestLoadPrecedence(t *testing.T) {
	home := isolate(t)

	userDir := filepath.Join(home, ".daily")
	if err := os.MkdirAll(userDir, 0755); err != nil {
		t.Fatal(err)
	}
	user := "slot_key = \"user\"\nsort = \"newest\"\nfeedback = \"none\"\ninsert_order = \"prepend\"\n"
	if err := os.WriteFile(filepath.Join(userDir, "daily.toml"), []byte(user), 0644); err != nil {
		t.Fatal(err)
	}
	project := "slot_key = \"project\"\nsort = \"title\"\n"
	if err := os.WriteFile("daily.toml", []byte(project), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DAILY_SORT", "insertion")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Load(fs, []string{"-key", "flagged", "ls"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	checks := []struct {
		field  string
		got    string
		want   string
		source ConfigSource
	}{
		{"slot_key", cfg.SlotKey, "flagged", SourceFlag},
		{"sort", cfg.Sort, "insertion", SourceEnv},
		{"insert_order", cfg.InsertOrder, "prepend", SourceUserFile},
		{"feedback", cfg.Feedback, "none", SourceUserFile},
		{"backend", cfg.Backend, DefaultBackend, SourceDefault},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %q, want %q", c.field, c.got, c.want)
		}
		if got := cfg.Source(c.field); got != c.source {
			t.Errorf("Source(%s): got %q, want %q", c.field, got, c.source)
		}
	}
	if len(cfg.ConfigFiles) != 2 {
		t.Errorf("ConfigFiles: got %v, want user and project", cfg.ConfigFiles)
	}
	if rest := fs.Args(); len(rest) != 1 || rest[0] != "ls" {
		t.Errorf("remaining args: got %v, want [ls]", rest)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"backend", []string{"-backend", "redis"}, "backend"},
		{"key", []string{"-key", "../etc"}, "slot_key"},
		{"insert order", []string{"-insert-order", "middle"}, "insert_order"},
		{"sort", []string{"-sort", "random"}, "sort"},
		{"feedback", []string{"-feedback", "vibrate"}, "feedback"},
		{"hook without command", []string{"-feedback", "hook"}, "feedback_command"},
		{"log level", []string{"-log-level", "loud"}, "log level"},
		{"log format", []string{"-log-format", "xml"}, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadLogFileRelativeToDataDir(t *testing.T) {
	isolate(t)
	dataDir := t.TempDir()
	t.Setenv("DAILY_DATA_DIR", dataDir)
	t.Setenv("DAILY_LOG_FILE", "daily.log")

	cfg, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(dataDir, "daily.log"); cfg.LogFile != want {
		t.Errorf("LogFile: got %q, want %q", cfg.LogFile, want)
	}
	opts := cfg.LoggingOptions()
	if opts.File != cfg.LogFile || opts.Level != "warn" {
		t.Errorf("LoggingOptions: got %+v", opts)
	}
}

func TestSlotPathOnlyForFileBackend(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.DataDir = "/data"
	cfg.Backend = "sqlite"
	if got := cfg.SlotPath(); got != "" {
		t.Errorf("SlotPath: got %q, want empty for sqlite", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"~", home},
		{"/absolute/path", "/absolute/path"},
		{"relative", "relative"},
		{"", ""},
	}
	if runtime.GOOS != "windows" {
		t.Setenv("DAILY_TEST_ROOT", "/srv")
		tests = append(tests, struct {
			input string
			want  string
		}{"$DAILY_TEST_ROOT/daily", "/srv/daily"})
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := expandPath(tt.input)
			if got != tt.want {
				t.Errorf("expandPath(%q): got %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFlags(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	args := []string{
		"--backend", "memory",
		"--sort", "title",
		"--log-level", "debug",
	}

	if err := parseFlags(cfg, fs, args); err != nil {
		t.Fatalf("parseFlags: %v", err)
	}

	if cfg.Backend != "memory" {
		t.Errorf("Backend: got %q, want memory", cfg.Backend)
	}
	if cfg.Sort != "title" {
		t.Errorf("Sort: got %q, want title", cfg.Sort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q, want debug", cfg.LogLevel)
	}
	if got := cfg.Source("log_level"); got != SourceFlag {
		t.Errorf("Source(log_level): got %q, want flag", got)
	}
	if got := cfg.Source("data_dir"); got != SourceDefault {
		t.Errorf("Source(data_dir): got %q, want default", got)
	}
}

func TestBoolFromString(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"yes", true},
		{"on", true},
		{"0", false},
		{"false", false},
		{"no", false},
		{"off", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := boolFromString(tt.input)
			if got != tt.want {
				t.Errorf("boolFromString(%q): got %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestExampleConfigLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daily.toml")
	if err := os.WriteFile(path, []byte(ExampleConfig()), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{}
	setDefaults(cfg)
	if err := loadConfigFile(cfg, path, SourceUserFile); err != nil {
		t.Fatalf("ExampleConfig does not parse: %v", err)
	}
	if cfg.Backend != "file" || cfg.SlotKey != "tasks" {
		t.Errorf("unexpected example values: %+v", cfg)
	}
}
