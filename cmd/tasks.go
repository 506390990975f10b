package cmd

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/nibzard/daily-go/internal/config"
	"github.com/nibzard/daily-go/internal/export"
	"github.com/nibzard/daily-go/internal/task"
	"github.com/nibzard/daily-go/internal/view"
)

// listFlags are the projection flags shared by ls, done, rm and export.
type listFlags struct {
	filter string
	query  string
	sort   string
}

func (lf *listFlags) register(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&lf.filter, "filter", "all", "Show all, active or completed tasks")
	fs.StringVar(&lf.query, "q", "", "Only tasks whose title contains this text")
	fs.StringVar(&lf.sort, "sort", cfg.Sort, "Sort order (insertion|newest|title)")
}

func (lf *listFlags) options() (view.Options, error) {
	filter, err := view.ParseFilter(lf.filter)
	if err != nil {
		return view.Options{}, err
	}
	sortOrder, err := view.ParseSort(lf.sort)
	if err != nil {
		return view.Options{}, err
	}
	return view.Options{Filter: filter, Query: lf.query, Sort: sortOrder}, nil
}

// addCommand adds one task. All arguments form the title.
func addCommand(cfg *config.Config, args []string) error {
	title := strings.Join(args, " ")
	if task.IsBlankTitle(title) {
		return errors.New("task title is empty")
	}

	a, err := openApp(cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	created, ok := a.store.Add(title)
	if !ok {
		return errors.New("task title is empty")
	}
	fmt.Fprintf(stdout, "Added: %s\n", export.NormalizeTitle(created.Title))
	return nil
}

// lsCommand lists the projection selected by the list flags.
func lsCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("daily ls", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var lf listFlags
	lf.register(fs, cfg)
	group := fs.Bool("group", false, "Show active and completed tasks as separate groups, newest first")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
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

	if *group {
		fmt.Fprintf(stdout, "Active (%d)\n", len(a.store.ActiveTasks()))
		export.WriteList(stdout, a.store.ActiveTasks())
		fmt.Fprintln(stdout)
		fmt.Fprintf(stdout, "Completed (%d)\n", len(a.store.CompletedTasks()))
		export.WriteList(stdout, a.store.CompletedTasks())
		return nil
	}

	export.WriteList(stdout, a.store.View(opts).Tasks())
	return nil
}

// doneCommand toggles the tasks named by position or id.
func doneCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("daily done", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var lf listFlags
	lf.register(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: daily done <pos|id>...")
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

	ids, err := resolveRefs(a.store.View(opts), a.store.Get, fs.Args())
	if err != nil {
		return err
	}
	for _, id := range ids {
		updated, ok := a.store.Toggle(id)
		if !ok {
			continue
		}
		state := "Reopened"
		if updated.IsCompleted {
			state = "Completed"
		}
		fmt.Fprintf(stdout, "%s: %s\n", state, export.NormalizeTitle(updated.Title))
	}
	return nil
}

// rmCommand deletes tasks by visible position or id.
func rmCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("daily rm", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var lf listFlags
	lf.register(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: daily rm <pos|id>...")
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

	v := a.store.View(opts)
	// Validate everything before touching the list.
	if _, err := resolveRefs(v, a.store.Get, fs.Args()); err != nil {
		return err
	}

	var (
		positions []int
		ids       []string
	)
	for _, ref := range fs.Args() {
		if pos, ok := parsePosition(ref); ok {
			positions = append(positions, pos)
		} else {
			ids = append(ids, ref)
		}
	}

	removed := 0
	if len(positions) > 0 {
		removed += a.store.DeleteVisible(v, positions...)
	}
	if len(ids) > 0 {
		removed += a.store.DeleteIDs(ids...)
	}
	fmt.Fprintf(stdout, "Deleted %d %s.\n", removed, plural(removed, "task", "tasks"))
	return nil
}

// resolveRefs maps 1-based positions in v and literal ids to task ids.
// Any reference that names no task is an error.
func resolveRefs(v view.View, get func(string) (task.Task, bool), refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		var id string
		if pos, ok := parsePosition(ref); ok {
			t, found := v.At(pos)
			if !found {
				return nil, fmt.Errorf("no task at position %s (list has %d)", ref, v.Len())
			}
			id = t.ID
		} else {
			if _, found := get(ref); !found {
				return nil, fmt.Errorf("no task with id %q", ref)
			}
			id = ref
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// parsePosition converts a 1-based CLI position to a 0-based index.
func parsePosition(ref string) (int, bool) {
	n, err := strconv.Atoi(ref)
	if err != nil {
		return 0, false
	}
	return n - 1, true
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
