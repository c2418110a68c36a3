// Package tasks holds the task collection: one-off and recurring tasks with
// subtasks, their mutators and the derived list views.
package tasks

import (
	"errors"
	"time"

	"github.com/vthunder/daybook/internal/dates"
)

var (
	ErrEmptyText                = errors.New("text must not be empty")
	ErrRecurrenceWithoutDueDate = errors.New("a recurring task needs a due date")
	ErrInvalidRecurrence        = errors.New("invalid recurrence rule")
	ErrNotFound                 = errors.New("task not found")
	ErrSubtaskNotFound          = errors.New("subtask not found")
)

// ID is a creation timestamp in milliseconds
type ID int64

// Subtask is a checklist item owned by a task
type Subtask struct {
	ID        ID     `json:"id" yaml:"id"`
	Text      string `json:"text" yaml:"text"`
	Completed bool   `json:"completed" yaml:"completed"`
}

// Task is a one-off or recurring to-do
type Task struct {
	ID             ID          `json:"id" yaml:"id"`
	Text           string      `json:"text" yaml:"text"`
	DueDate        *dates.Date `json:"dueDate" yaml:"dueDate,omitempty"`
	Notes          string      `json:"notes" yaml:"notes,omitempty"`
	RecurrenceRule string      `json:"recurrenceRule,omitempty" yaml:"recurrenceRule,omitempty"`
	Completed      bool        `json:"completed" yaml:"completed"`
	CreatedAt      time.Time   `json:"createdAt" yaml:"createdAt"`
	CompletedAt    *time.Time  `json:"completedAt" yaml:"completedAt,omitempty"`
	Subtasks       []Subtask   `json:"subtasks" yaml:"subtasks"`
}

// Recurring reports whether the task carries a recurrence rule
func (t Task) Recurring() bool {
	return t.RecurrenceRule != ""
}

// Subtask returns the subtask with id
func (t Task) Subtask(id ID) (Subtask, bool) {
	for _, s := range t.Subtasks {
		if s.ID == id {
			return s, true
		}
	}
	return Subtask{}, false
}

// SubtaskProgress returns (completed, total)
func (t Task) SubtaskProgress() (int, int) {
	done := 0
	for _, s := range t.Subtasks {
		if s.Completed {
			done++
		}
	}
	return done, len(t.Subtasks)
}

func (t Task) clone() Task {
	out := t
	if t.DueDate != nil {
		out.DueDate = t.DueDate.Ptr()
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		out.CompletedAt = &at
	}
	out.Subtasks = make([]Subtask, len(t.Subtasks))
	copy(out.Subtasks, t.Subtasks)
	return out
}

// resetSubtasks returns a copy with every item unchecked
func resetSubtasks(items []Subtask) []Subtask {
	result := make([]Subtask, len(items))
	for i, item := range items {
		item.Completed = false
		result[i] = item
	}
	return result
}

func allDone(items []Subtask) bool {
	if len(items) == 0 {
		return false
	}
	for _, s := range items {
		if !s.Completed {
			return false
		}
	}
	return true
}

// NewTask carries the fields accepted by Add
type NewTask struct {
	Text           string
	DueDate        *dates.Date
	Notes          string
	RecurrenceRule string
}

// Patch updates selected task fields. Nil fields are left alone; an empty
// RecurrenceRule clears the rule and a zero DueDate clears the due date.
type Patch struct {
	Text           *string
	DueDate        *dates.Date
	Notes          *string
	RecurrenceRule *string
}

// SubtaskPatch updates selected subtask fields
type SubtaskPatch struct {
	Text *string
}
