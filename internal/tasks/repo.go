package tasks

import (
	"fmt"
	"strings"

	"github.com/vthunder/daybook/internal/dates"
	"github.com/vthunder/daybook/internal/ids"
	"github.com/vthunder/daybook/internal/logging"
	"github.com/vthunder/daybook/internal/recurrence"
)

// ChangeHook runs after every successful mutation with the current collection
type ChangeHook func(tasks []Task)

// Repository is the in-memory task collection. It is not safe for concurrent
// use; the dashboard serialises access.
type Repository struct {
	cal   dates.Calendar
	ids   *ids.Generator
	tasks []Task
	hooks []ChangeHook
}

func NewRepository(cal dates.Calendar, gen *ids.Generator) *Repository {
	if gen == nil {
		gen = ids.NewGenerator(cal.Clock)
	}
	return &Repository{cal: cal, ids: gen, tasks: []Task{}}
}

// OnChange registers a hook invoked after each mutation
func (r *Repository) OnChange(h ChangeHook) {
	r.hooks = append(r.hooks, h)
}

func (r *Repository) changed() {
	for _, h := range r.hooks {
		h(r.Tasks())
	}
}

// Load replaces the collection without firing hooks. Tasks without subtasks
// get an empty list.
func (r *Repository) Load(tasks []Task) {
	r.tasks = make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Subtasks == nil {
			t.Subtasks = []Subtask{}
		}
		if t.DueDate != nil && t.DueDate.IsZero() {
			t.DueDate = nil
		}
		r.ids.Observe(int64(t.ID))
		for _, s := range t.Subtasks {
			r.ids.Observe(int64(s.ID))
		}
		r.tasks = append(r.tasks, t.clone())
	}
}

// Tasks returns a copy of the collection in stored order
func (r *Repository) Tasks() []Task {
	out := make([]Task, len(r.tasks))
	for i, t := range r.tasks {
		out[i] = t.clone()
	}
	return out
}

// Len is the number of tasks
func (r *Repository) Len() int {
	return len(r.tasks)
}

// Get returns the task with id
func (r *Repository) Get(id ID) (Task, error) {
	i := r.index(id)
	if i < 0 {
		return Task{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return r.tasks[i].clone(), nil
}

func (r *Repository) index(id ID) int {
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) subIndex(t *Task, id ID) int {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			return i
		}
	}
	return -1
}

// validate checks text and recurrence on a task about to be stored
func validate(t *Task) error {
	if strings.TrimSpace(t.Text) == "" {
		return ErrEmptyText
	}
	if t.RecurrenceRule == "" {
		return nil
	}
	if t.DueDate == nil || t.DueDate.IsZero() {
		return ErrRecurrenceWithoutDueDate
	}
	if _, err := recurrence.Parse(t.RecurrenceRule, *t.DueDate); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecurrence, err)
	}
	return nil
}

// Add creates a task
func (r *Repository) Add(n NewTask) (Task, error) {
	t := Task{
		Text:     strings.TrimSpace(n.Text),
		Notes:    n.Notes,
		Subtasks: []Subtask{},
	}
	if n.DueDate != nil && !n.DueDate.IsZero() {
		t.DueDate = n.DueDate.Ptr()
	}
	if n.RecurrenceRule != "" {
		t.RecurrenceRule = recurrence.Normalize(n.RecurrenceRule)
	}
	if err := validate(&t); err != nil {
		return Task{}, err
	}

	t.ID = ID(r.ids.Next())
	t.CreatedAt = r.cal.Now()
	r.tasks = append(r.tasks, t)
	logging.Debug("tasks", "Added %d: %s", t.ID, logging.Truncate(t.Text, 60))

	r.changed()
	return t.clone(), nil
}

// Toggle flips completion. With subtaskID 0 the parent is toggled: completing
// stamps completedAt, un-completing clears it and unchecks every subtask.
// Otherwise the subtask is flipped and the parent follows: it completes when
// the last subtask is checked and un-completes when any subtask is unchecked.
func (r *Repository) Toggle(taskID, subtaskID ID) (Task, error) {
	i := r.index(taskID)
	if i < 0 {
		return Task{}, fmt.Errorf("%w: %d", ErrNotFound, taskID)
	}
	t := r.tasks[i].clone()
	now := r.cal.Now()

	if subtaskID != 0 {
		j := r.subIndex(&t, subtaskID)
		if j < 0 {
			return Task{}, fmt.Errorf("%w: %d/%d", ErrSubtaskNotFound, taskID, subtaskID)
		}
		t.Subtasks[j].Completed = !t.Subtasks[j].Completed

		switch done := allDone(t.Subtasks); {
		case done && !t.Completed:
			t.Completed = true
			t.CompletedAt = &now
		case !done && t.Completed:
			t.Completed = false
			t.CompletedAt = nil
		}
	} else {
		t.Completed = !t.Completed
		if t.Completed {
			t.CompletedAt = &now
		} else {
			t.CompletedAt = nil
			t.Subtasks = resetSubtasks(t.Subtasks)
		}
	}

	r.tasks[i] = t
	logging.Debug("tasks", "Toggled %d (subtask %d): completed=%v", taskID, subtaskID, t.Completed)
	r.changed()
	return t.clone(), nil
}

// Update merges patch into the task. Completion and subtasks are not
// settable here.
func (r *Repository) Update(taskID ID, p Patch) (Task, error) {
	i := r.index(taskID)
	if i < 0 {
		return Task{}, fmt.Errorf("%w: %d", ErrNotFound, taskID)
	}
	t := r.tasks[i].clone()

	if p.Text != nil {
		t.Text = strings.TrimSpace(*p.Text)
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.DueDate != nil {
		if p.DueDate.IsZero() {
			t.DueDate = nil
		} else {
			t.DueDate = p.DueDate.Ptr()
		}
	}
	if p.RecurrenceRule != nil {
		t.RecurrenceRule = ""
		if *p.RecurrenceRule != "" {
			t.RecurrenceRule = recurrence.Normalize(*p.RecurrenceRule)
		}
	}
	if err := validate(&t); err != nil {
		return Task{}, err
	}

	r.tasks[i] = t
	r.changed()
	return t.clone(), nil
}

// UpdateSubtask merges patch into a subtask
func (r *Repository) UpdateSubtask(taskID, subtaskID ID, p SubtaskPatch) (Task, error) {
	i := r.index(taskID)
	if i < 0 {
		return Task{}, fmt.Errorf("%w: %d", ErrNotFound, taskID)
	}
	t := r.tasks[i].clone()
	j := r.subIndex(&t, subtaskID)
	if j < 0 {
		return Task{}, fmt.Errorf("%w: %d/%d", ErrSubtaskNotFound, taskID, subtaskID)
	}
	if p.Text != nil {
		text := strings.TrimSpace(*p.Text)
		if text == "" {
			return Task{}, ErrEmptyText
		}
		t.Subtasks[j].Text = text
	}

	r.tasks[i] = t
	r.changed()
	return t.clone(), nil
}

// AddSubtask appends an unchecked subtask. A completed parent stays completed.
func (r *Repository) AddSubtask(taskID ID, text string) (Subtask, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Subtask{}, ErrEmptyText
	}
	i := r.index(taskID)
	if i < 0 {
		return Subtask{}, fmt.Errorf("%w: %d", ErrNotFound, taskID)
	}

	s := Subtask{ID: ID(r.ids.Next()), Text: text}
	r.tasks[i].Subtasks = append(r.tasks[i].Subtasks, s)
	r.changed()
	return s, nil
}

// Delete removes a task and its subtasks
func (r *Repository) Delete(taskID ID) error {
	i := r.index(taskID)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, taskID)
	}
	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	r.changed()
	return nil
}

// DeleteSubtask removes one subtask. The parent's completion is left as is.
func (r *Repository) DeleteSubtask(taskID, subtaskID ID) error {
	i := r.index(taskID)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, taskID)
	}
	t := &r.tasks[i]
	j := r.subIndex(t, subtaskID)
	if j < 0 {
		return fmt.Errorf("%w: %d/%d", ErrSubtaskNotFound, taskID, subtaskID)
	}
	subs := make([]Subtask, 0, len(t.Subtasks)-1)
	subs = append(subs, t.Subtasks[:j]...)
	t.Subtasks = append(subs, t.Subtasks[j+1:]...)
	r.changed()
	return nil
}

// ClearHistory removes completed tasks without a recurrence rule and returns
// how many were removed. Completed recurring tasks stay: they reset on their
// next occurrence.
func (r *Repository) ClearHistory() int {
	kept := r.tasks[:0]
	removed := 0
	for _, t := range r.tasks {
		if t.Completed && !t.Recurring() {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	r.tasks = kept
	if removed > 0 {
		logging.Info("tasks", "Cleared %d completed tasks from history", removed)
	}
	r.changed()
	return removed
}

// Move places the task at index in the stored order (clamped to the
// collection bounds).
func (r *Repository) Move(taskID ID, index int) error {
	i := r.index(taskID)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, taskID)
	}
	if index < 0 {
		index = 0
	}
	if index >= len(r.tasks) {
		index = len(r.tasks) - 1
	}
	t := r.tasks[i]
	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	r.tasks = append(r.tasks[:index], append([]Task{t}, r.tasks[index:]...)...)
	r.changed()
	return nil
}

// Replace swaps in an already-validated collection (startup scan, import)
// and fires the hooks.
func (r *Repository) Replace(tasks []Task) {
	r.Load(tasks)
	r.changed()
}
