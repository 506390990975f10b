// Package store owns the canonical in-memory task list and mirrors it to a
// single key-value slot.
//
// Every mutation runs the same sequence synchronously before returning:
// update memory, encode and write the whole list, notify subscribers, emit
// feedback. Persistence problems are logged and otherwise ignored; the
// in-memory state is authoritative for the running process.
//
// A Store is not safe for concurrent use.
package store

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/daily-go/internal/feedback"
	"github.com/nibzard/daily-go/internal/kv"
	"github.com/nibzard/daily-go/internal/task"
	"github.com/nibzard/daily-go/internal/view"
)

// DefaultKey is the slot the list is stored under.
const DefaultKey = "tasks"

// InsertOrder decides where new tasks go.
type InsertOrder string

const (
	// Append adds new tasks at the end (insertion order).
	Append InsertOrder = "append"
	// Prepend adds new tasks at the front (newest first).
	Prepend InsertOrder = "prepend"
)

// Store is the task store.
type Store struct {
	kv       kv.Store
	key      string
	order    InsertOrder
	now      func() time.Time
	logger   *log.Logger
	feedback feedback.Signal

	tasks  []task.Task
	subs   map[int]func([]task.Task)
	nextID int
}

// Option configures a Store.
type Option func(*Store)

// WithKey sets the slot key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithInsertOrder sets the insertion policy.
func WithInsertOrder(order InsertOrder) Option {
	return func(s *Store) {
		if order == Prepend {
			s.order = Prepend
		} else {
			s.order = Append
		}
	}
}

// WithLogger sets the logger used for degraded loads and failed writes.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFeedback sets the signal emitted on add, toggle and delete.
func WithFeedback(sig feedback.Signal) Option {
	return func(s *Store) {
		if sig != nil {
			s.feedback = sig
		}
	}
}

// WithClock overrides time.Now for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a store over kvs and loads the persisted list. It never fails:
// a missing or unreadable slot yields an empty list.
func New(kvs kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:       kvs,
		key:      DefaultKey,
		order:    Append,
		now:      time.Now,
		logger:   log.New(io.Discard),
		feedback: feedback.Nop{},
		subs:     make(map[int]func([]task.Task)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tasks = s.load()
	return s
}

// Key returns the slot key.
func (s *Store) Key() string {
	return s.key
}

// InsertOrder returns the insertion policy.
func (s *Store) InsertOrder() InsertOrder {
	return s.order
}

// Reload re-reads the slot and notifies subscribers. Used after another
// process changed the persisted list.
func (s *Store) Reload() {
	s.tasks = s.load()
	s.notify()
}

// load reads and decodes the slot. Absent or bad data means no tasks.
func (s *Store) load() []task.Task {
	data, ok, err := s.kv.Get(s.key)
	if err != nil {
		s.logger.Warn("cannot read task list, starting empty", "key", s.key, "err", err)
		return []task.Task{}
	}
	if !ok {
		s.logger.Debug("no persisted task list", "key", s.key)
		return []task.Task{}
	}

	tasks, err := task.Decode(data)
	if err != nil {
		s.logger.Warn("persisted task list is invalid, starting empty", "key", s.key, "err", err)
		return []task.Task{}
	}

	tasks, dropped := task.Dedupe(tasks)
	for _, id := range dropped {
		s.logger.Warn("dropping task with duplicate id", "id", id)
	}
	s.logger.Debug("loaded task list", "key", s.key, "count", len(tasks))
	return tasks
}

// persist writes the whole list. Failures are logged, never returned.
func (s *Store) persist() {
	data, err := task.Encode(s.tasks)
	if err != nil {
		s.logger.Warn("cannot encode task list, skipping save", "err", err)
		return
	}
	if err := s.kv.Set(s.key, data); err != nil {
		s.logger.Warn("cannot save task list", "key", s.key, "err", err)
	}
}

// commit runs the post-mutation sequence: persist, notify, then feedback.
func (s *Store) commit(events ...feedback.Event) {
	s.persist()
	s.notify()
	for _, ev := range events {
		s.feedback.Emit(ev)
	}
}

// Add creates a task from title. A blank title is ignored and ok is false.
func (s *Store) Add(title string) (created task.Task, ok bool) {
	if task.IsBlankTitle(title) {
		s.logger.Debug("ignoring blank title")
		return task.Task{}, false
	}

	t := task.New(title, s.now())
	if s.order == Prepend {
		s.tasks = append([]task.Task{t}, s.tasks...)
	} else {
		s.tasks = append(s.tasks, t)
	}
	s.logger.Debug("added task", "id", t.ID, "title", t.Title)

	s.commit(feedback.Event{Kind: feedback.Added, Task: t.Clone()})
	return t.Clone(), true
}

// Toggle flips the completion flag of the task with id. Unknown ids are
// ignored and ok is false.
func (s *Store) Toggle(id string) (updated task.Task, ok bool) {
	i := s.indexOf(id)
	if i < 0 {
		s.logger.Debug("toggle: no such task", "id", id)
		return task.Task{}, false
	}

	s.tasks[i].IsCompleted = !s.tasks[i].IsCompleted
	t := s.tasks[i].Clone()
	s.logger.Debug("toggled task", "id", id, "completed", t.IsCompleted)

	s.commit(feedback.Event{Kind: feedback.Toggled, Task: t})
	return t.Clone(), true
}

// Delete removes the tasks at positions in storage order (the order Tasks
// returns). Out-of-range positions are ignored. It returns the number of
// tasks removed.
func (s *Store) Delete(positions ...int) int {
	return s.DeleteVisible(view.Project(s.tasks, view.Options{}), positions...)
}

// DeleteVisible removes the tasks at positions of v, a projection the
// caller rendered. Positions are resolved to ids through v first, so the
// right tasks are removed whatever filter or sort v applied.
func (s *Store) DeleteVisible(v view.View, positions ...int) int {
	return s.DeleteIDs(v.IDsAt(positions...)...)
}

// DeleteIDs removes the tasks with the given ids. Unknown ids are ignored.
// The list is persisted once, and only if something was removed.
func (s *Store) DeleteIDs(ids ...string) int {
	if len(ids) == 0 {
		return 0
	}
	remove := make(map[string]bool, len(ids))
	for _, id := range ids {
		remove[id] = true
	}

	kept := make([]task.Task, 0, len(s.tasks))
	var events []feedback.Event
	for _, t := range s.tasks {
		if remove[t.ID] {
			events = append(events, feedback.Event{Kind: feedback.Deleted, Task: t.Clone()})
			continue
		}
		kept = append(kept, t)
	}
	if len(events) == 0 {
		s.logger.Debug("delete: nothing matched", "ids", ids)
		return 0
	}

	s.tasks = kept
	s.logger.Debug("deleted tasks", "count", len(events))
	s.commit(events...)
	return len(events)
}

// Subscribe registers fn to receive a snapshot after every change.
// The returned function cancels the subscription.
func (s *Store) Subscribe(fn func([]task.Task)) (cancel func()) {
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	if len(s.subs) == 0 {
		return
	}
	// Stable order keeps notifications deterministic.
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.subs[id]; ok {
			fn(s.Tasks())
		}
	}
}

func (s *Store) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
