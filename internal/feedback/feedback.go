// Package feedback emits fire-and-forget signals when tasks change.
package feedback

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/daily-go/internal/task"
)

// Kind names a user-visible change.
type Kind string

const (
	Added   Kind = "added"
	Toggled Kind = "toggled"
	Deleted Kind = "deleted"
)

// Event describes a change that may deserve a signal.
type Event struct {
	Kind Kind
	Task task.Task
}

// Signal consumes events. Emit must not block the caller for long and has
// no failure mode the caller can observe.
type Signal interface {
	Emit(Event)
}

// Modes accepted by New.
const (
	ModeNone = "none"
	ModeBell = "bell"
	ModeHook = "hook"
)

// New builds the signal for a configured mode.
func New(mode, command string, w io.Writer, logger *log.Logger) (Signal, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeNone, "":
		return Nop{}, nil
	case ModeBell:
		return &Bell{W: w}, nil
	case ModeHook:
		if strings.TrimSpace(command) == "" {
			return nil, fmt.Errorf("feedback mode %q requires feedback_command", ModeHook)
		}
		return &Hook{Command: command, Logger: logger}, nil
	}
	return nil, fmt.Errorf("invalid feedback mode %q (expected none|bell|hook)", mode)
}

// Nop discards every event.
type Nop struct{}

// Emit does nothing.
func (Nop) Emit(Event) {}

// Bell rings the terminal bell on toggle and delete.
type Bell struct {
	W io.Writer
}

// Emit writes BEL for Toggled and Deleted events.
func (b *Bell) Emit(ev Event) {
	if b.W == nil || ev.Kind == Added {
		return
	}
	_, _ = io.WriteString(b.W, "\a")
}

// Hook runs an external command for every event without waiting for it.
// The event is passed in DAILY_EVENT, DAILY_TASK_ID, DAILY_TASK_TITLE and
// DAILY_TASK_COMPLETED.
type Hook struct {
	Command string
	Logger  *log.Logger

	// start replaces exec for tests.
	start func(*exec.Cmd) error
}

// Emit starts the hook command in the background.
func (h *Hook) Emit(ev Event) {
	if strings.TrimSpace(h.Command) == "" {
		return
	}

	cmd := shellCommand(h.Command)
	cmd.Env = append(os.Environ(), Env(ev)...)
	// Stdout and Stderr stay nil: the child writes to the null device, so no
	// pipe is left behind when a one-shot command exits.

	start := h.start
	if start == nil {
		start = func(c *exec.Cmd) error {
			if err := c.Start(); err != nil {
				return err
			}
			go func() {
				if err := c.Wait(); err != nil && h.Logger != nil {
					h.Logger.Warn("feedback hook failed", "event", ev.Kind, "err", err)
				}
			}()
			return nil
		}
	}
	if err := start(cmd); err != nil && h.Logger != nil {
		h.Logger.Warn("feedback hook did not start", "command", h.Command, "err", err)
	}
}

// Env returns the environment entries describing ev.
func Env(ev Event) []string {
	return []string{
		"DAILY_EVENT=" + string(ev.Kind),
		"DAILY_TASK_ID=" + ev.Task.ID,
		"DAILY_TASK_TITLE=" + ev.Task.Title,
		fmt.Sprintf("DAILY_TASK_COMPLETED=%t", ev.Task.IsCompleted),
	}
}

func shellCommand(command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.Command("cmd", "/C", command)
	}
	return exec.Command("sh", "-c", command)
}
