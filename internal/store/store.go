// Package store owns the task collection, persists it to a key-value store
// and tells subscribers when it changes.
package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todomini/internal/kv"
	"github.com/nibzard/todomini/internal/logging"
	"github.com/nibzard/todomini/internal/todo"
)

// DefaultKey is the key the collection is persisted under.
const DefaultKey = "TodoMiniTodos"

// PersistError reports a failed write of the collection. The mutation that
// triggered the write is still applied in memory.
type PersistError struct {
	Key string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// ErrAmbiguous is returned by Resolve when a prefix matches several tasks.
var ErrAmbiguous = errors.New("ambiguous task id")

// ErrNoMatch is returned by Resolve when nothing matches.
var ErrNoMatch = errors.New("no task matches")

// Option configures a Store.
type Option func(*Store)

// WithKey sets the persistence key.
func WithKey(key string) Option {
	return func(s *Store) {
		if strings.TrimSpace(key) != "" {
			s.key = key
		}
	}
}

// WithClock replaces the clock used for createdAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDFunc replaces the id generator.
func WithIDFunc(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithLogger sets the logger for load and persistence failures.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store is the single owner of the task collection. All methods are safe
// for concurrent use; reads return copies.
type Store struct {
	mu     sync.Mutex
	kv     kv.Store
	key    string
	tasks  []todo.Task
	now    func() time.Time
	newID  func() string
	logger *log.Logger

	subMu  sync.Mutex
	subs   map[int]chan struct{}
	nextID int
}

// New creates a store backed by backend and loads the persisted collection.
// A missing key or an undecodable blob yields an empty collection. Loaded
// records without an id get a fresh one; later duplicates of an id are dropped.
func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:     backend,
		key:    DefaultKey,
		now:    time.Now,
		newID:  todo.NewID,
		logger: logging.Discard(),
		subs:   make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	var repaired bool
	s.tasks, repaired = s.load()
	if repaired {
		if err := s.save(); err != nil {
			s.logger.Warn("failed to persist repaired tasks", "key", s.key, "err", err)
		}
	}
	return s
}

// Key returns the persistence key.
func (s *Store) Key() string {
	return s.key
}

// load reads the persisted collection. repaired reports whether ids or
// creation times had to be filled in.
func (s *Store) load() (tasks []todo.Task, repaired bool) {
	data, err := s.kv.Get(s.key)
	if errors.Is(err, kv.ErrNotFound) {
		s.logger.Debug("no saved tasks", "key", s.key)
		return []todo.Task{}, false
	}
	if err != nil {
		s.logger.Warn("failed to read tasks, starting empty", "key", s.key, "err", err)
		return []todo.Task{}, false
	}

	tasks, err = todo.Decode(data)
	if err != nil {
		s.logger.Warn("failed to decode tasks, starting empty", "key", s.key, "err", err)
		return []todo.Task{}, false
	}

	seen := make(map[string]bool, len(tasks))
	out := tasks[:0]
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = s.newID()
			repaired = true
			s.logger.Warn("assigned id to task without one", "id", t.ID, "title", t.Title)
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = s.now().UTC()
			repaired = true
		}
		if seen[t.ID] {
			s.logger.Warn("dropping duplicate task id", "id", t.ID)
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	s.logger.Debug("loaded tasks", "key", s.key, "count", len(out))
	return out, repaired
}

// save writes the whole collection. Callers hold s.mu.
func (s *Store) save() error {
	data, err := todo.Encode(s.tasks)
	if err == nil {
		err = s.kv.Set(s.key, data)
	}
	if err != nil {
		s.logger.Error("failed to save tasks", "key", s.key, "err", err)
		return &PersistError{Key: s.key, Err: err}
	}
	return nil
}

// commit persists and notifies after a mutation. Callers hold s.mu.
func (s *Store) commit() error {
	err := s.save()
	s.notify()
	return err
}

func (s *Store) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Add appends a task with the given title and default fields.
func (s *Store) Add(title string) (todo.Task, error) {
	return s.AddFull(todo.Fields{Title: title})
}

// AddFull appends a task built from f. A new id and createdAt are assigned.
func (s *Store) AddFull(f todo.Fields) (todo.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for s.indexOf(id) >= 0 {
		id = s.newID()
	}
	t := todo.New(id, s.now().UTC(), f)
	s.tasks = append(s.tasks, t)
	s.logger.Info("task added", "id", t.ID, "title", t.Title)
	return t.Clone(), s.commit()
}

// Update replaces the mutable fields of the task with the given id, keeping
// its position. It reports false when no task has that id.
func (s *Store) Update(id string, f todo.Fields) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.tasks[i].Apply(f)
	s.logger.Info("task updated", "id", id)
	return true, s.commit()
}

// Edit applies fn to a copy of the task's fields and stores the result.
func (s *Store) Edit(id string, fn func(*todo.Fields)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	f := s.tasks[i].Fields()
	fn(&f)
	s.tasks[i].Apply(f)
	s.logger.Info("task edited", "id", id)
	return true, s.commit()
}

// ToggleComplete flips isCompleted on the task with the given id.
func (s *Store) ToggleComplete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.tasks[i].IsCompleted = !s.tasks[i].IsCompleted
	s.logger.Info("task toggled", "id", id, "completed", s.tasks[i].IsCompleted)
	return true, s.commit()
}

// Delete removes every task whose id is in ids and returns how many were
// removed. Nothing is written when no task matched.
func (s *Store) Delete(ids ...string) (int, error) {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return s.removeIf(func(t todo.Task) bool { return set[t.ID] })
}

// DeleteCompleted removes every completed task.
func (s *Store) DeleteCompleted() (int, error) {
	return s.removeIf(func(t todo.Task) bool { return t.IsCompleted })
}

func (s *Store) removeIf(match func(todo.Task) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]todo.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !match(t) {
			kept = append(kept, t)
		}
	}
	removed := len(s.tasks) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	s.tasks = kept
	s.logger.Info("tasks deleted", "count", removed)
	return removed, s.commit()
}

// Import appends tasks whose ids are not already present, keeping their ids
// and createdAt. Tasks without an id get a new one.
func (s *Store) Import(tasks []todo.Task) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, t := range tasks {
		t = t.Clone()
		if t.ID == "" {
			t.ID = s.newID()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = s.now().UTC()
		}
		if s.indexOf(t.ID) >= 0 {
			s.logger.Debug("skipping existing task", "id", t.ID)
			continue
		}
		s.tasks = append(s.tasks, t)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	s.logger.Info("tasks imported", "count", added)
	return added, s.commit()
}

// Tasks returns a copy of the collection in insertion order.
func (s *Store) Tasks() []todo.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]todo.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Get returns a copy of the task with the given id.
func (s *Store) Get(id string) (todo.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return todo.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// Resolve finds the task whose id equals ref or uniquely starts with it.
func (s *Store) Resolve(ref string) (todo.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return todo.Task{}, ErrNoMatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(ref); i >= 0 {
		return s.tasks[i].Clone(), nil
	}
	match := -1
	for i := range s.tasks {
		if strings.HasPrefix(s.tasks[i].ID, ref) {
			if match >= 0 {
				return todo.Task{}, fmt.Errorf("%w: %q", ErrAmbiguous, ref)
			}
			match = i
		}
	}
	if match < 0 {
		return todo.Task{}, fmt.Errorf("%w: %q", ErrNoMatch, ref)
	}
	return s.tasks[match].Clone(), nil
}
