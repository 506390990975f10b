package feedback

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/daily-go/internal/task"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		command string
		want    string
		wantErr bool
	}{
		{"empty is nop", "", "", "feedback.Nop", false},
		{"none", "none", "", "feedback.Nop", false},
		{"bell", "Bell", "", "*feedback.Bell", false},
		{"hook", "hook", "true", "*feedback.Hook", false},
		{"hook without command", "hook", " ", "", true},
		{"unknown", "vibrate", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := New(tt.mode, tt.command, &bytes.Buffer{}, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %T", sig)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var got string
			switch sig.(type) {
			case Nop:
				got = "feedback.Nop"
			case *Bell:
				got = "*feedback.Bell"
			case *Hook:
				got = "*feedback.Hook"
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBell(t *testing.T) {
	var buf bytes.Buffer
	b := &Bell{W: &buf}

	b.Emit(Event{Kind: Added})
	if buf.Len() != 0 {
		t.Errorf("added should be silent, got %q", buf.String())
	}
	b.Emit(Event{Kind: Toggled})
	b.Emit(Event{Kind: Deleted})
	if buf.String() != "\a\a" {
		t.Errorf("got %q, want two bells", buf.String())
	}

	// nil writer is tolerated
	(&Bell{}).Emit(Event{Kind: Toggled})
}

func TestEnv(t *testing.T) {
	env := Env(Event{Kind: Toggled, Task: task.Task{ID: "abc", Title: "Buy milk", IsCompleted: true}})
	want := []string{
		"DAILY_EVENT=toggled",
		"DAILY_TASK_ID=abc",
		"DAILY_TASK_TITLE=Buy milk",
		"DAILY_TASK_COMPLETED=true",
	}
	if strings.Join(env, "\n") != strings.Join(want, "\n") {
		t.Errorf("Env: got %v, want %v", env, want)
	}
}

func TestHookStartFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	h := &Hook{
		Command: "whatever",
		Logger:  log.New(&logs),
		start:   func(*exec.Cmd) error { return errors.New("no shell") },
	}
	h.Emit(Event{Kind: Deleted})
	if !strings.Contains(logs.String(), "feedback hook did not start") {
		t.Errorf("expected warning in logs, got %q", logs.String())
	}
}

func TestHookDoesNotPipeOutput(t *testing.T) {
	var started *exec.Cmd
	h := &Hook{
		Command: "echo hi",
		start: func(c *exec.Cmd) error {
			started = c
			return nil
		},
	}
	h.Emit(Event{Kind: Added, Task: task.Task{ID: "1", Title: "x"}})

	if started == nil {
		t.Fatal("hook command was not started")
	}
	if started.Stdout != nil || started.Stderr != nil {
		t.Errorf("Stdout/Stderr should be nil, got %v / %v", started.Stdout, started.Stderr)
	}
	if !slices.Contains(started.Env, "DAILY_EVENT=added") {
		t.Errorf("Env missing DAILY_EVENT=added")
	}
}

func TestHookRunsCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	out := filepath.Join(t.TempDir(), "event.txt")
	h := &Hook{Command: `printf "%s %s" "$DAILY_EVENT" "$DAILY_TASK_TITLE" > ` + out}
	h.Emit(Event{Kind: Toggled, Task: task.Task{ID: "1", Title: "Walk dog"}})

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(out)
		if err == nil && string(data) == "toggled Walk dog" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	data, _ := os.ReadFile(out)
	t.Fatalf("hook output: got %q, want %q", data, "toggled Walk dog")
}
