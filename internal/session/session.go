// Package session ties the credential gate and the task store together for a
// front end: authenticate once, load, then save after every change.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasker/internal/auth"
	"github.com/nibzard/tasker/internal/logging"
	"github.com/nibzard/tasker/internal/todo"
)

var (
	// ErrNotAuthenticated is returned by task operations before a successful Login.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNoSelection is returned by CompleteTask when no task is selected.
	ErrNoSelection = errors.New("no task selected")
	// ErrNotLoaded is returned by every save after the task file failed to load.
	ErrNotLoaded = errors.New("task file was not loaded; refusing to overwrite it")
)

// Authenticator checks credentials. *auth.Gate implements it.
type Authenticator interface {
	Authenticate(username, password string) (auth.Outcome, error)
	Registered() (bool, error)
}

// TaskStore is the persistence surface a session needs. *todo.Store implements it.
type TaskStore interface {
	Load() (*todo.LoadReport, error)
	Save() error
	Add(description, deadline string) todo.Task
	Append(tasks []todo.Task) []todo.Task
	MarkDone(id todo.ID) error
	Snapshot() todo.Snapshot
	Path() string
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session serializes front-end calls against one gate and one store.
type Session struct {
	gate   Authenticator
	store  TaskStore
	logger *log.Logger

	mu            sync.Mutex
	authenticated bool
	user          string
	report        *todo.LoadReport
	loadErr       error
}

// New creates a session.
func New(gate Authenticator, store TaskStore, opts ...Option) *Session {
	s := &Session{
		gate:   gate,
		store:  store,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registered reports whether a credential already exists.
func (s *Session) Registered() (bool, error) {
	return s.gate.Registered()
}

// Login authenticates and, on success, loads the task file. A load error is
// returned alongside a successful outcome; the session is then authenticated
// with an empty task list and every later save fails with ErrNotLoaded.
func (s *Session) Login(username, password string) (auth.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome, err := s.gate.Authenticate(username, password)
	if !outcome.OK() {
		if err == nil {
			err = auth.ErrInvalidCredentials
		}
		return outcome, err
	}

	s.authenticated = true
	s.user = username

	report, err := s.store.Load()
	s.report = report
	s.loadErr = err
	if err != nil {
		s.logger.Error("load tasks", "path", s.store.Path(), "err", err)
		return outcome, fmt.Errorf("load tasks: %w", err)
	}
	s.logger.Info("session started", "user", username, "outcome", outcome, "tasks", report.Loaded)
	return outcome, nil
}

// Authenticated reports whether Login has succeeded.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// User returns the logged-in username.
func (s *Session) User() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// LoadReport returns the report of the load performed at login, if any.
func (s *Session) LoadReport() *todo.LoadReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// AddTask adds a task and saves. The task stays in memory if the save fails.
func (s *Session) AddTask(description, deadline string) (todo.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated {
		return todo.Task{}, ErrNotAuthenticated
	}

	task := s.store.Add(description, deadline)
	s.logger.Debug("task added", "description", description, "deadline", deadline)
	return task, s.save()
}

// CompleteTask marks a task done and saves.
func (s *Session) CompleteTask(id todo.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated {
		return ErrNotAuthenticated
	}
	if id.IsZero() {
		return ErrNoSelection
	}

	if err := s.store.MarkDone(id); err != nil {
		return err
	}
	s.logger.Debug("task completed", "id", id)
	return s.save()
}

// Import appends tasks and saves.
func (s *Session) Import(tasks []todo.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated {
		return ErrNotAuthenticated
	}

	added := s.store.Append(tasks)
	s.logger.Info("tasks imported", "count", len(added))
	return s.save()
}

// Save writes the task file.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated {
		return ErrNotAuthenticated
	}
	return s.save()
}

// Refresh returns the current tasks. It returns an empty snapshot before login.
func (s *Session) Refresh() todo.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated {
		return todo.Snapshot{}
	}
	return s.store.Snapshot()
}

// Close performs the final save. It does nothing if Login never succeeded.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated {
		return nil
	}
	if err := s.save(); err != nil {
		return err
	}
	s.logger.Info("session closed", "user", s.user)
	return nil
}

func (s *Session) save() error {
	if s.loadErr != nil {
		return fmt.Errorf("save tasks: %w: %w", ErrNotLoaded, s.loadErr)
	}
	if err := s.store.Save(); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}
