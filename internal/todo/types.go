package todo

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTaskNotFound is returned when an ID does not match any task in the store.
var ErrTaskNotFound = errors.New("task not found")

// ID identifies a task inside one running Store. IDs are never written to disk
// and are not reused after a reload. The zero ID means "no task".
type ID uint64

// IsZero reports whether the ID references no task.
func (id ID) IsZero() bool {
	return id == 0
}

// Status is the display status of a task.
type Status string

const (
	StatusTodo Status = "todo"
	StatusDone Status = "done"
)

// Task is a single to-do item.
type Task struct {
	ID          ID     `json:"-"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
	Done        bool   `json:"done"`
}

// Status returns StatusDone for completed tasks and StatusTodo otherwise.
func (t Task) Status() Status {
	if t.Done {
		return StatusDone
	}
	return StatusTodo
}

// Snapshot is a point-in-time copy of the collection.
type Snapshot struct {
	Version uint64
	Tasks   []Task
}

// Counts returns the number of pending and completed tasks.
func (s Snapshot) Counts() (pending, done int) {
	for _, t := range s.Tasks {
		if t.Done {
			done++
		} else {
			pending++
		}
	}
	return pending, done
}

// SkippedRecord describes a line that Load could not turn into a task.
type SkippedRecord struct {
	Line   int
	Reason string
}

func (r SkippedRecord) String() string {
	return fmt.Sprintf("line %d: %s", r.Line, r.Reason)
}

// LoadReport summarizes a Load call.
type LoadReport struct {
	Path    string
	Loaded  int
	Skipped []SkippedRecord
	// Missing is true when the task file did not exist.
	Missing bool
}

// ParseDone parses the done field. Only "true", ignoring case, is true.
func ParseDone(s string) bool {
	return strings.EqualFold(s, "true")
}

// ParseStatus parses a status filter value.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusTodo:
		return StatusTodo, nil
	case StatusDone:
		return StatusDone, nil
	default:
		return "", fmt.Errorf("invalid status %q, must be one of: todo, done", s)
	}
}
