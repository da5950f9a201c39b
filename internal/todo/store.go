package todo

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/natefinch/atomic"
)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for persistence warnings and errors.
func WithLogger(logger *log.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store owns the ordered task collection and keeps it in sync with a task file.
// All methods are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	path    string
	logger  *log.Logger
	tasks   []Task
	lastID  ID
	version uint64

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewStore creates an empty store backed by the task file at path.
// Nothing is read until Load is called.
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{
		path:   path,
		logger: log.New(io.Discard),
		subs:   make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the task file path.
func (s *Store) Path() string {
	return s.path
}

// Load replaces the collection with the contents of the task file.
// The collection is cleared first, so on error it is left empty.
func (s *Store) Load() (*LoadReport, error) {
	report := &LoadReport{Path: s.path}

	s.mu.Lock()
	s.tasks = nil
	s.version++

	f, err := os.Open(s.path)
	if err != nil {
		s.mu.Unlock()
		s.notify()
		if errors.Is(err, fs.ErrNotExist) {
			report.Missing = true
			s.logger.Debug("task file not found, starting empty", "path", s.path)
			return report, nil
		}
		s.logger.Error("open task file", "path", s.path, "err", err)
		return report, fmt.Errorf("open task file: %w", err)
	}
	defer f.Close()

	tasks, skipped, err := Decode(f)
	if err != nil {
		s.mu.Unlock()
		s.notify()
		s.logger.Error("read task file", "path", s.path, "err", err)
		return report, fmt.Errorf("read task file: %w", err)
	}

	for i := range tasks {
		tasks[i].ID = s.newID()
	}
	s.tasks = tasks
	s.mu.Unlock()

	report.Loaded = len(tasks)
	report.Skipped = skipped
	for _, sk := range skipped {
		s.logger.Warn("skipped task record", "path", s.path, "line", sk.Line, "reason", sk.Reason)
	}
	s.logger.Debug("loaded tasks", "path", s.path, "count", report.Loaded, "skipped", len(skipped))

	s.notify()
	return report, nil
}

// Save writes the whole collection to the task file, replacing its contents.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := Encode(&buf, s.tasks); err != nil {
		s.logger.Error("encode tasks", "err", err)
		return err
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			s.logger.Error("create task file dir", "dir", dir, "err", err)
			return fmt.Errorf("create task file dir: %w", err)
		}
	}

	if err := atomic.WriteFile(s.path, &buf); err != nil {
		s.logger.Error("write task file", "path", s.path, "err", err)
		return fmt.Errorf("write task file: %w", err)
	}

	s.logger.Debug("saved tasks", "path", s.path, "count", len(s.tasks))
	return nil
}

// Add appends a new, not yet done task and returns it. Line breaks in the
// description or deadline become spaces.
func (s *Store) Add(description, deadline string) Task {
	s.mu.Lock()
	task := Task{
		ID:          s.newID(),
		Description: singleLine(description),
		Deadline:    singleLine(deadline),
	}
	s.tasks = append(s.tasks, task)
	s.version++
	s.mu.Unlock()

	s.notify()
	return task
}

// Append adds already built tasks, keeping their done flags, and returns them
// with their assigned IDs. Line breaks are replaced as in Add.
func (s *Store) Append(tasks []Task) []Task {
	if len(tasks) == 0 {
		return nil
	}

	s.mu.Lock()
	added := make([]Task, len(tasks))
	for i, t := range tasks {
		t.ID = s.newID()
		t.Description = singleLine(t.Description)
		t.Deadline = singleLine(t.Deadline)
		added[i] = t
	}
	s.tasks = append(s.tasks, added...)
	s.version++
	s.mu.Unlock()

	s.notify()
	return added
}

// MarkDone marks the task as done. Marking a done task again changes nothing.
// A zero ID is a no-op.
func (s *Store) MarkDone(id ID) error {
	if id.IsZero() {
		return nil
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("mark done %d: %w", id, ErrTaskNotFound)
	}
	changed := !s.tasks[idx].Done
	if changed {
		s.tasks[idx].Done = true
		s.version++
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
	return nil
}

// Get returns the task with the given ID.
func (s *Store) Get(id ID) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return Task{}, false
	}
	return s.tasks[idx], true
}

// Tasks returns a copy of the collection in order.
func (s *Store) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyTasks()
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Snapshot returns a versioned copy of the collection.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Version: s.version, Tasks: s.copyTasks()}
}

// Subscribe registers fn to be called with a fresh snapshot after every load and
// every mutation. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	if len(s.subs) == 0 {
		s.subMu.Unlock()
		return
	}
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	snap := s.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}

// newID must be called with s.mu held.
func (s *Store) newID() ID {
	s.lastID++
	return s.lastID
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(id ID) int {
	if id.IsZero() {
		return -1
	}
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// copyTasks must be called with s.mu held.
func (s *Store) copyTasks() []Task {
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}
