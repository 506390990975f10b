// Package view derives read-only projections of a task list for display.
package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nibzard/daily-go/internal/task"
)

// Filter selects tasks by completion state.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Sort orders a projection.
type Sort string

const (
	// SortInsertion keeps storage order.
	SortInsertion Sort = "insertion"
	// SortNewest orders by creation time, newest first.
	SortNewest Sort = "newest"
	// SortTitle orders by title, case-insensitively.
	SortTitle Sort = "title"
)

// Options describes a projection.
type Options struct {
	Filter Filter
	Query  string
	Sort   Sort
}

// View is a filtered and sorted copy of a task list. Its order is the
// visible order positions refer to.
type View struct {
	Options Options
	tasks   []task.Task
}

// Project builds a view of tasks. The input slice is not modified.
func Project(tasks []task.Task, opts Options) View {
	query := strings.ToLower(strings.TrimSpace(opts.Query))
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if !opts.Filter.matches(t) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(t.Title), query) {
			continue
		}
		out = append(out, t.Clone())
	}

	switch opts.Sort {
	case SortNewest:
		SortNewestFirst(out)
	case SortTitle:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
		})
	}

	return View{Options: opts, tasks: out}
}

// Tasks returns a copy of the visible tasks.
func (v View) Tasks() []task.Task {
	out := make([]task.Task, len(v.tasks))
	for i, t := range v.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Len returns the number of visible tasks.
func (v View) Len() int {
	return len(v.tasks)
}

// At returns the task at a visible position.
func (v View) At(pos int) (task.Task, bool) {
	if pos < 0 || pos >= len(v.tasks) {
		return task.Task{}, false
	}
	return v.tasks[pos].Clone(), true
}

// IDsAt maps visible positions to task ids. Out-of-range and repeated
// positions are skipped.
func (v View) IDsAt(positions ...int) []string {
	seen := make(map[int]bool, len(positions))
	ids := make([]string, 0, len(positions))
	for _, pos := range positions {
		if pos < 0 || pos >= len(v.tasks) || seen[pos] {
			continue
		}
		seen[pos] = true
		ids = append(ids, v.tasks[pos].ID)
	}
	return ids
}

// IndexOf returns the visible position of id, or -1.
func (v View) IndexOf(id string) int {
	for i, t := range v.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (f Filter) matches(t task.Task) bool {
	switch f {
	case FilterActive:
		return !t.IsCompleted
	case FilterCompleted:
		return t.IsCompleted
	default:
		return true
	}
}

// SortNewestFirst sorts by creation time descending in place. Tasks without
// a timestamp go last; ties keep their relative order.
func SortNewestFirst(tasks []task.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		left := tasks[i].CreatedAt
		right := tasks[j].CreatedAt
		if left == nil {
			return false
		}
		if right == nil {
			return true
		}
		return left.After(*right)
	})
}

// ParseFilter maps user input to a Filter. Empty input means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "active", "open", "todo":
		return FilterActive, nil
	case "completed", "done":
		return FilterCompleted, nil
	}
	return "", fmt.Errorf("invalid filter %q (expected all|active|completed)", s)
}

// ParseSort maps user input to a Sort. Empty input means SortInsertion.
func ParseSort(s string) (Sort, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "insertion":
		return SortInsertion, nil
	case "newest", "created":
		return SortNewest, nil
	case "title":
		return SortTitle, nil
	}
	return "", fmt.Errorf("invalid sort %q (expected insertion|newest|title)", s)
}

// NextSort cycles insertion -> newest -> title -> insertion.
func NextSort(s Sort) Sort {
	switch s {
	case SortInsertion, "":
		return SortNewest
	case SortNewest:
		return SortTitle
	default:
		return SortInsertion
	}
}
