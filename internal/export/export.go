// Package export renders task lists for the CLI and for export files.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nibzard/daily-go/internal/task"
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps user input to a Format. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("invalid format %q (expected text|json|yaml)", s)
}

// yamlTask mirrors the persisted field names.
type yamlTask struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	IsCompleted bool   `yaml:"isCompleted"`
	CreatedAt   string `yaml:"createdAt,omitempty"`
}

// Write renders tasks in format f.
func Write(w io.Writer, f Format, tasks []task.Task) error {
	switch f {
	case FormatJSON:
		if tasks == nil {
			tasks = []task.Task{}
		}
		data, err := json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal json: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case FormatYAML:
		out := make([]yamlTask, len(tasks))
		for i, t := range tasks {
			out[i] = yamlTask{ID: t.ID, Title: t.Title, IsCompleted: t.IsCompleted}
			if t.CreatedAt != nil {
				out[i].CreatedAt = t.CreatedAt.UTC().Format(time.RFC3339)
			}
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		return enc.Close()
	default:
		WriteList(w, tasks)
		return nil
	}
}

// WriteList prints numbered lines: "{N:>4}  [x] {TITLE}". Numbers are
// 1-based visible positions.
func WriteList(w io.Writer, tasks []task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	for i, t := range tasks {
		FormatTask(w, i+1, t)
	}
}

// FormatTask writes a single numbered task line.
func FormatTask(w io.Writer, num int, t task.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", num, Checkbox(t), NormalizeTitle(t.Title))
}

// Checkbox returns "[x]" for completed tasks and "[ ]" otherwise.
func Checkbox(t task.Task) string {
	if t.IsCompleted {
		return "[x]"
	}
	return "[ ]"
}

// NormalizeTitle flattens newlines so a task always fits on one line.
func NormalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")
	return strings.TrimSpace(title)
}
