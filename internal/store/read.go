package store

import (
	"github.com/nibzard/daily-go/internal/task"
	"github.com/nibzard/daily-go/internal/view"
)

// Tasks returns a snapshot of the list in storage order.
func (s *Store) Tasks() []task.Task {
	out := make([]task.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	return len(s.tasks)
}

// Get returns the task with id.
func (s *Store) Get(id string) (task.Task, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return task.Task{}, false
}

// View projects the current list.
func (s *Store) View(opts view.Options) view.View {
	return view.Project(s.tasks, opts)
}

// ActiveTasks returns open tasks, newest first.
func (s *Store) ActiveTasks() []task.Task {
	return s.View(view.Options{Filter: view.FilterActive, Sort: view.SortNewest}).Tasks()
}

// CompletedTasks returns completed tasks, newest first.
func (s *Store) CompletedTasks() []task.Task {
	return s.View(view.Options{Filter: view.FilterCompleted, Sort: view.SortNewest}).Tasks()
}
