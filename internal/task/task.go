package task

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task is a single to-do item.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	IsCompleted bool       `json:"isCompleted"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// New returns an open task with a fresh random identifier.
// The title is stored trimmed, with invalid UTF-8 replaced by U+FFFD so it
// survives encoding unchanged. Callers reject blank titles before calling New.
func New(title string, now time.Time) Task {
	created := now.UTC().Round(0)
	return Task{
		ID:        uuid.NewString(),
		Title:     strings.ToValidUTF8(strings.TrimSpace(title), "\uFFFD"),
		CreatedAt: &created,
	}
}

// referenceDate is the epoch of numeric timestamps written by Apple's
// Foundation encoders: seconds since 2001-01-01 UTC.
var referenceDate = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// UnmarshalJSON accepts createdAt as an RFC 3339 string or as a number of
// seconds since referenceDate. Encoding always writes the string form.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	var raw struct {
		plain
		CreatedAt json.RawMessage `json:"createdAt,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	created, err := decodeTimestamp(raw.CreatedAt)
	if err != nil {
		return fmt.Errorf("createdAt: %w", err)
	}
	*t = Task(raw.plain)
	t.CreatedAt = created
	return nil
}

func decodeTimestamp(raw json.RawMessage) (*time.Time, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil, nil
	}
	if s[0] == '"' {
		var ts time.Time
		if err := json.Unmarshal(raw, &ts); err != nil {
			return nil, err
		}
		return &ts, nil
	}
	var secs float64
	if err := json.Unmarshal(raw, &secs); err != nil {
		return nil, err
	}
	ts := referenceDate.Add(time.Duration(secs * float64(time.Second)))
	return &ts, nil
}

// IsZero returns true if the task is empty (has no ID).
func (t *Task) IsZero() bool {
	return t.ID == ""
}

// Clone returns a copy that shares no memory with t.
func (t Task) Clone() Task {
	if t.CreatedAt != nil {
		created := *t.CreatedAt
		t.CreatedAt = &created
	}
	return t
}

// Equal reports whether two tasks carry the same id, title, completion flag
// and creation instant.
func (t Task) Equal(o Task) bool {
	if t.ID != o.ID || t.Title != o.Title || t.IsCompleted != o.IsCompleted {
		return false
	}
	switch {
	case t.CreatedAt == nil && o.CreatedAt == nil:
		return true
	case t.CreatedAt == nil || o.CreatedAt == nil:
		return false
	}
	return t.CreatedAt.Equal(*o.CreatedAt)
}

// IsBlankTitle reports whether title is empty after trimming whitespace.
func IsBlankTitle(title string) bool {
	return strings.TrimSpace(title) == ""
}

// Encode serializes the whole list as a JSON array. A nil list encodes as [].
func Encode(tasks []Task) ([]byte, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("marshal task list: %w", err)
	}
	return data, nil
}

// Decode validates data against the list schema and parses it.
func Decode(data []byte) ([]Task, error) {
	if err := ValidateJSON(data); err != nil {
		return nil, err
	}

	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("parse task list: %w", err)
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

// Dedupe keeps the first occurrence of every id and returns the ids of the
// dropped duplicates in the order they were seen.
func Dedupe(tasks []Task) ([]Task, []string) {
	seen := make(map[string]struct{}, len(tasks))
	kept := make([]Task, 0, len(tasks))
	var dropped []string
	for _, t := range tasks {
		if _, ok := seen[t.ID]; ok {
			dropped = append(dropped, t.ID)
			continue
		}
		seen[t.ID] = struct{}{}
		kept = append(kept, t)
	}
	return kept, dropped
}
