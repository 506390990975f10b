// Package cmd implements the CLI command structure for daily.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/daily-go/internal/config"
	"github.com/nibzard/daily-go/internal/feedback"
	"github.com/nibzard/daily-go/internal/kv"
	"github.com/nibzard/daily-go/internal/logging"
	"github.com/nibzard/daily-go/internal/store"
	"github.com/nibzard/daily-go/internal/ui"
	"github.com/nibzard/daily-go/internal/view"
	"github.com/nibzard/daily-go/internal/watch"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Output streams, swapped in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Run executes the daily CLI.
func Run(ctx context.Context, args []string) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("daily", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cfg, err := config.Load(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// No subcommand lists the tasks.
	subcommand := "ls"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 && !strings.HasPrefix(remainingArgs[0], "-") {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "add":
		return addCommand(cfg, remainingArgs)
	case "ls", "list":
		return lsCommand(cfg, remainingArgs)
	case "done", "toggle":
		return doneCommand(cfg, remainingArgs)
	case "rm", "delete":
		return rmCommand(cfg, remainingArgs)
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "export":
		return exportCommand(cfg, remainingArgs)
	case "doctor":
		return doctorCommand(cfg, remainingArgs)
	case "log":
		return logCommand(ctx, cfg, remainingArgs)
	case "config":
		fmt.Fprint(stdout, config.ExampleConfig())
		return nil
	case "version":
		return versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// app bundles the collaborators a command needs.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	kv     kv.Store
	store  *store.Store

	logCloser io.Closer
}

// openApp wires logging, the kv backend, feedback and the store from cfg.
// Log output goes to logOut unless a log file is configured.
func openApp(cfg *config.Config, logOut io.Writer) (*app, error) {
	logger, logCloser, err := logging.New(cfg.LoggingOptions(), logOut)
	if err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}

	kvs, err := kv.Open(cfg.Backend, cfg.DataDir, kv.WithLogger(logger.WithPrefix("kv")))
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("opening %s storage: %w", cfg.Backend, err)
	}

	sig, err := feedback.New(cfg.Feedback, cfg.FeedbackCommand, stderr, logger.WithPrefix("feedback"))
	if err != nil {
		kvs.Close()
		logCloser.Close()
		return nil, err
	}

	if cfg.Backend == kv.BackendMemory {
		logger.Warn("memory backend selected, tasks will not outlive this process")
	}

	s := store.New(kvs,
		store.WithKey(cfg.SlotKey),
		store.WithInsertOrder(store.InsertOrder(cfg.InsertOrder)),
		store.WithLogger(logger.WithPrefix("store")),
		store.WithFeedback(sig),
	)

	return &app{
		cfg:       cfg,
		logger:    logger,
		kv:        kvs,
		store:     s,
		logCloser: logCloser,
	}, nil
}

func (a *app) Close() error {
	return errors.Join(a.kv.Close(), a.logCloser.Close())
}

// tuiCommand launches the TUI.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("daily tui", flag.ContinueOnError)
	fs.SetOutput(stderr)
	noWatch := fs.Bool("no-watch", false, "Do not reload when the slot file changes on disk")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	// The TUI owns the terminal, so logs go to the log file or nowhere.
	a, err := openApp(cfg, io.Discard)
	if err != nil {
		return err
	}
	defer a.Close()

	sortOrder, err := view.ParseSort(cfg.Sort)
	if err != nil {
		return err
	}
	opts := []ui.TUIOption{
		ui.WithSort(sortOrder),
		ui.WithLogger(a.logger.WithPrefix("tui")),
	}

	if slot := cfg.SlotPath(); slot != "" {
		opts = append(opts, ui.WithSlotName(slot))
		if !*noWatch {
			w, err := watch.New(slot, watch.WithLogger(a.logger.WithPrefix("watch")))
			if err != nil {
				a.logger.Warn("cannot watch slot file, external edits need r to reload", "path", slot, "err", err)
			} else {
				defer w.Close()
				opts = append(opts, ui.WithReloads(w.Events()))
			}
		}
	} else {
		opts = append(opts, ui.WithSlotName(cfg.Backend+":"+cfg.SlotKey))
	}

	return ui.RunTUI(ctx, a.store, opts...)
}

// logCommand prints the configured log file.
func logCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("daily log", flag.ContinueOnError)
	fs.SetOutput(stderr)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if cfg.LogFile == "" {
		fmt.Fprintln(stdout, "No log file configured (set log_file or DAILY_LOG_FILE).")
		return nil
	}
	if _, err := os.Stat(cfg.LogFile); os.IsNotExist(err) {
		fmt.Fprintf(stdout, "Log file %s does not exist yet.\n", cfg.LogFile)
		return nil
	}

	if *follow {
		fmt.Fprintf(stdout, "Tailing: %s\n(Ctrl+C to stop)\n\n", cfg.LogFile)
	}
	return logging.TailLog(ctx, stdout, cfg.LogFile, *n, *follow)
}

// versionCommand shows version information.
func versionCommand() error {
	fmt.Fprintf(stdout, "daily version %s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "daily - a minimal personal to-do list")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  daily [global options] [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  add <title...>        Add a task")
	fmt.Fprintln(w, "  ls                    List tasks (default command)")
	fmt.Fprintln(w, "  done <pos|id>...      Toggle completion")
	fmt.Fprintln(w, "  rm <pos|id>...        Delete tasks")
	fmt.Fprintln(w, "  tui                   Launch terminal UI")
	fmt.Fprintln(w, "  export                Write tasks as text, json or yaml")
	fmt.Fprintln(w, "  doctor                Show config sources and check storage")
	fmt.Fprintln(w, "  log [-n N] [-f]       Print the log file")
	fmt.Fprintln(w, "  config                Print an example config file")
	fmt.Fprintln(w, "  version               Show version information")
	fmt.Fprintln(w, "  help                  Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "List Options (ls, done, rm, export):")
	fmt.Fprintln(w, "  -filter string")
	fmt.Fprintln(w, "        Show all, active or completed tasks (default all)")
	fmt.Fprintln(w, "  -q string")
	fmt.Fprintln(w, "        Only tasks whose title contains this text")
	fmt.Fprintln(w, "  -sort string")
	fmt.Fprintln(w, "        insertion, newest or title (default from config)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Positions are 1-based and refer to the order ls prints with the same")
	fmt.Fprintln(w, "list options.")
}
