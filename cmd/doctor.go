package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/nibzard/daily-go/internal/config"
	"github.com/nibzard/daily-go/internal/export"
	"github.com/nibzard/daily-go/internal/kv"
	"github.com/nibzard/daily-go/internal/task"
)

// exportCommand writes the projection in the requested format.
func exportCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("daily export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var lf listFlags
	lf.register(fs, cfg)
	formatName := fs.String("format", "json", "Output format (text|json|yaml)")
	outPath := fs.String("o", "", "Write to file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	format, err := export.ParseFormat(*formatName)
	if err != nil {
		return err
	}
	opts, err := lf.options()
	if err != nil {
		return err
	}

	a, err := openApp(cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	tasks := a.store.View(opts).Tasks()

	var w io.Writer = stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", *outPath, err)
		}
		defer f.Close()
		w = f
	}
	if err := export.Write(w, format, tasks); err != nil {
		return fmt.Errorf("writing %s export: %w", format, err)
	}
	if *outPath != "" {
		fmt.Fprintf(stderr, "Exported %d %s to %s\n", len(tasks), plural(len(tasks), "task", "tasks"), *outPath)
	}
	return nil
}

// doctorCommand prints the effective configuration with sources and checks
// that the stored task list is readable.
func doctorCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("daily doctor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	fmt.Fprintln(stdout, "Daily Doctor")
	fmt.Fprintln(stdout, "============")
	fmt.Fprintln(stdout)

	fmt.Fprintln(stdout, "Config files:")
	if len(cfg.ConfigFiles) == 0 {
		fmt.Fprintln(stdout, "  (none, using defaults)")
	}
	for _, path := range cfg.ConfigFiles {
		fmt.Fprintf(stdout, "  %s\n", path)
	}
	fmt.Fprintln(stdout)

	fmt.Fprintln(stdout, "Config:")
	values := configValues(cfg)
	for _, field := range config.Fields() {
		fmt.Fprintf(stdout, "  %-17s %-28q (%s)\n", field, values[field], cfg.Source(field))
	}
	fmt.Fprintln(stdout)

	fmt.Fprintln(stdout, "Storage:")
	ok := checkSlot(stdout, cfg)
	fmt.Fprintln(stdout)

	if !ok {
		return errors.New("doctor found problems")
	}
	fmt.Fprintln(stdout, "All checks passed.")
	return nil
}

// checkSlot reads the slot directly, without the store's degrade-to-empty
// behavior, and reports what a load would see.
func checkSlot(w io.Writer, cfg *config.Config) bool {
	fmt.Fprintf(w, "  Backend: %s\n", cfg.Backend)
	fmt.Fprintf(w, "  Data dir: %s\n", cfg.DataDir)
	if slot := cfg.SlotPath(); slot != "" {
		fmt.Fprintf(w, "  Slot file: %s\n", slot)
	} else {
		fmt.Fprintf(w, "  Slot key: %s\n", cfg.SlotKey)
	}

	kvs, err := kv.Open(cfg.Backend, cfg.DataDir)
	if err != nil {
		fmt.Fprintf(w, "  ❌ Cannot open storage: %v\n", err)
		return false
	}
	defer kvs.Close()

	data, found, err := kvs.Get(cfg.SlotKey)
	switch {
	case err != nil:
		fmt.Fprintf(w, "  ❌ Cannot read slot: %v\n", err)
		return false
	case !found:
		fmt.Fprintln(w, "  ✅ No task list stored yet")
		return true
	}

	tasks, err := task.Decode(data)
	if err != nil {
		fmt.Fprintf(w, "  ❌ Stored task list is invalid and would load as empty:\n")
		for _, leaf := range unwrapAll(err) {
			fmt.Fprintf(w, "     %v\n", leaf)
		}
		return false
	}

	deduped, dropped := task.Dedupe(tasks)
	completed := 0
	for _, t := range deduped {
		if t.IsCompleted {
			completed++
		}
	}
	fmt.Fprintf(w, "  ✅ %d %s stored, %d completed\n", len(deduped), plural(len(deduped), "task", "tasks"), completed)
	if len(dropped) > 0 {
		fmt.Fprintf(w, "  ⚠️  %d duplicate %s will be dropped on load\n", len(dropped), plural(len(dropped), "id", "ids"))
	}
	return true
}

// unwrapAll flattens an errors.Join tree into its leaves.
func unwrapAll(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, unwrapAll(e)...)
		}
		return out
	}
	return []error{err}
}

func configValues(cfg *config.Config) map[string]string {
	return map[string]string{
		"backend":          cfg.Backend,
		"data_dir":         cfg.DataDir,
		"slot_key":         cfg.SlotKey,
		"insert_order":     cfg.InsertOrder,
		"sort":             cfg.Sort,
		"feedback":         cfg.Feedback,
		"feedback_command": cfg.FeedbackCommand,
		"log_level":        cfg.LogLevel,
		"log_format":       cfg.LogFormat,
		"log_file":         cfg.LogFile,
		"log_timestamps":   fmt.Sprint(cfg.LogTimestamps),
		"log_caller":       fmt.Sprint(cfg.LogCaller),
	}
}
