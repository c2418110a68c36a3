package dashboard

import (
	"context"
	"fmt"

	"github.com/vthunder/daybook/internal/activity"
	"github.com/vthunder/daybook/internal/config"
	"github.com/vthunder/daybook/internal/dates"
	"github.com/vthunder/daybook/internal/logging"
	"github.com/vthunder/daybook/internal/streak"
	"github.com/vthunder/daybook/internal/tasks"
	"github.com/vthunder/daybook/internal/weight"
)

func taskEntry(t activity.Type, id tasks.ID, verb, text string) activity.Entry {
	return activity.Entry{Type: t, TaskID: int64(id), Summary: verb + ": " + logging.Truncate(text, 80)}
}

// AddTask creates a task
func (d *Dashboard) AddTask(ctx context.Context, n tasks.NewTask) (tasks.Task, error) {
	var out tasks.Task
	err := d.mutateTasks(ctx, func(r *tasks.Repository) (activity.Entry, error) {
		t, err := r.Add(n)
		if err != nil {
			return activity.Entry{}, err
		}
		out = t
		return taskEntry(activity.TypeTaskAdded, t.ID, "added", t.Text), nil
	})
	return out, err
}

// ToggleTask flips a task (subtaskID 0) or one of its subtasks
func (d *Dashboard) ToggleTask(ctx context.Context, taskID, subtaskID tasks.ID) (tasks.Task, error) {
	var out tasks.Task
	err := d.mutateTasks(ctx, func(r *tasks.Repository) (activity.Entry, error) {
		t, err := r.Toggle(taskID, subtaskID)
		if err != nil {
			return activity.Entry{}, err
		}
		out = t
		if subtaskID != 0 {
			s, _ := t.Subtask(subtaskID)
			verb := "unchecked subtask"
			if s.Completed {
				verb = "checked subtask"
			}
			return taskEntry(activity.TypeSubtask, t.ID, verb, s.Text), nil
		}
		if t.Completed {
			return taskEntry(activity.TypeTaskCompleted, t.ID, "completed", t.Text), nil
		}
		return taskEntry(activity.TypeTaskReopened, t.ID, "reopened", t.Text), nil
	})
	return out, err
}

// UpdateTask merges patch into a task
func (d *Dashboard) UpdateTask(ctx context.Context, taskID tasks.ID, p tasks.Patch) (tasks.Task, error) {
	var out tasks.Task
	err := d.mutateTasks(ctx, func(r *tasks.Repository) (activity.Entry, error) {
		t, err := r.Update(taskID, p)
		if err != nil {
			return activity.Entry{}, err
		}
		out = t
		return taskEntry(activity.TypeTaskUpdated, t.ID, "edited", t.Text), nil
	})
	return out, err
}

// UpdateSubtask merges patch into a subtask
func (d *Dashboard) UpdateSubtask(ctx context.Context, taskID, subtaskID tasks.ID, p tasks.SubtaskPatch) (tasks.Task, error) {
	var out tasks.Task
	err := d.mutateTasks(ctx, func(r *tasks.Repository) (activity.Entry, error) {
		t, err := r.UpdateSubtask(taskID, subtaskID, p)
		if err != nil {
			return activity.Entry{}, err
		}
		out = t
		s, _ := t.Subtask(subtaskID)
		return taskEntry(activity.TypeSubtask, t.ID, "edited subtask", s.Text), nil
	})
	return out, err
}

// AddSubtask appends a subtask to a task
func (d *Dashboard) AddSubtask(ctx context.Context, taskID tasks.ID, text string) (tasks.Subtask, error) {
	var out tasks.Subtask
	err := d.mutateTasks(ctx, func(r *tasks.Repository) (activity.Entry, error) {
		s, err := r.AddSubtask(taskID, text)
		if err != nil {
			return activity.Entry{}, err
		}
		out = s
		return taskEntry(activity.TypeSubtask, taskID, "added subtask", s.Text), nil
	})
	return out, err
}

// DeleteTask removes a task with its subtasks
func (d *Dashboard) DeleteTask(ctx context.Context, taskID tasks.ID) error {
	return d.mutateTasks(ctx, func(r *tasks.Repository) (activity.Entry, error) {
		t, err := r.Get(taskID)
		if err != nil {
			return activity.Entry{}, err
		}
		if err := r.Delete(taskID); err != nil {
			return activity.Entry{}, err
		}
		return taskEntry(activity.TypeTaskDeleted, taskID, "deleted", t.Text), nil
	})
}

// DeleteSubtask removes one subtask
func (d *Dashboard) DeleteSubtask(ctx context.Context, taskID, subtaskID tasks.ID) error {
	return d.mutateTasks(ctx, func(r *tasks.Repository) (activity.Entry, error) {
		t, err := r.Get(taskID)
		if err != nil {
			return activity.Entry{}, err
		}
		s, _ := t.Subtask(subtaskID)
		if err := r.DeleteSubtask(taskID, subtaskID); err != nil {
			return activity.Entry{}, err
		}
		return taskEntry(activity.TypeSubtask, taskID, "removed subtask", s.Text), nil
	})
}

// ClearHistory deletes completed one-off tasks and returns how many went
func (d *Dashboard) ClearHistory(ctx context.Context) (int, error) {
	var n int
	err := d.mutateTasks(ctx, func(r *tasks.Repository) (activity.Entry, error) {
		n = r.ClearHistory()
		return activity.Entry{
			Type:    activity.TypeHistoryCleared,
			Summary: fmt.Sprintf("cleared %d completed tasks", n),
		}, nil
	})
	return n, err
}

// MoveTask reorders a task within the stored collection
func (d *Dashboard) MoveTask(ctx context.Context, taskID tasks.ID, index int) error {
	return d.mutateTasks(ctx, func(r *tasks.Repository) (activity.Entry, error) {
		return activity.Entry{}, r.Move(taskID, index)
	})
}

// Tasks returns every task in stored order
func (d *Dashboard) Tasks() []tasks.Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tasks.Tasks()
}

// Task returns one task
func (d *Dashboard) Task(id tasks.ID) (tasks.Task, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tasks.Get(id)
}

// VisibleTasks is the sorted task list: open tasks plus today's completions
func (d *Dashboard) VisibleTasks() []tasks.Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	return tasks.Visible(d.tasks.Tasks(), d.cal)
}

// History lists completed one-off tasks, newest first
func (d *Dashboard) History() []tasks.HistoryEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return tasks.History(d.tasks.Tasks())
}

// AddWeight records a weigh-in
func (d *Dashboard) AddWeight(ctx context.Context, date dates.Date, w float64) (weight.Entry, error) {
	var out weight.Entry
	err := d.mutateWeights(ctx, func(l *weight.Log) (activity.Entry, error) {
		e, err := l.Add(date, w)
		if err != nil {
			return activity.Entry{}, err
		}
		out = e
		return activity.Entry{
			Type:    activity.TypeWeight,
			Summary: fmt.Sprintf("weighed in at %.1f on %s", e.Weight, e.Date),
			Data:    map[string]any{"id": e.ID, "weight": e.Weight},
		}, nil
	})
	return out, err
}

// DeleteWeight removes a weigh-in
func (d *Dashboard) DeleteWeight(ctx context.Context, id int64) error {
	return d.mutateWeights(ctx, func(l *weight.Log) (activity.Entry, error) {
		if err := l.Delete(id); err != nil {
			return activity.Entry{}, err
		}
		return activity.Entry{
			Type:    activity.TypeWeight,
			Summary: fmt.Sprintf("removed weigh-in %d", id),
		}, nil
	})
}

// Weights returns the weight log in date order
func (d *Dashboard) Weights() []weight.Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.weights.Entries()
}

// RecentWeights returns up to n weigh-ins, newest first (n <= 0 for all)
func (d *Dashboard) RecentWeights(n int) []weight.Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.weights.Recent(n)
}

// WeightSeries is the weight chart data in date order
func (d *Dashboard) WeightSeries() []weight.Point {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.weights.Series()
}

// WeightStats summarises the weight log; ok is false below two entries
func (d *Dashboard) WeightStats() (weight.Stats, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.weights.Stats()
}

// Streak is the current streak record
func (d *Dashboard) Streak() streak.Info {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.streak
}

// ResetStreak clears the streak on request
func (d *Dashboard) ResetStreak(ctx context.Context) error {
	d.mu.Lock()
	prev := d.streak
	d.streak = streak.Reset()
	err := d.persistStreak(ctx)
	if d.activity != nil {
		if lerr := d.activity.LogStreak(prev.Count, 0); lerr != nil {
			logging.Warn("activity", "Failed to record streak reset: %v", lerr)
		}
	}
	observers := d.observersLocked()
	d.mu.Unlock()

	dispatch(observers, []Event{{Kind: EventStreak, Streak: streak.Reset()}})
	return err
}

// Theme is the resolved theme, "dark" or "light"
func (d *Dashboard) Theme() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.theme
}

// SetTheme stores a theme preference
func (d *Dashboard) SetTheme(ctx context.Context, theme string) error {
	if theme != config.ThemeDark && theme != config.ThemeLight {
		return fmt.Errorf("theme must be %s or %s, got %q", config.ThemeDark, config.ThemeLight, theme)
	}
	d.mu.Lock()
	err := d.setThemeLocked(ctx, theme)
	observers := d.observersLocked()
	d.mu.Unlock()

	dispatch(observers, []Event{{Kind: EventTheme, Theme: theme}})
	return err
}

// ToggleTheme switches between dark and light and returns the new theme
func (d *Dashboard) ToggleTheme(ctx context.Context) (string, error) {
	d.mu.Lock()
	next := config.ThemeDark
	if d.theme == config.ThemeDark {
		next = config.ThemeLight
	}
	err := d.setThemeLocked(ctx, next)
	observers := d.observersLocked()
	d.mu.Unlock()

	dispatch(observers, []Event{{Kind: EventTheme, Theme: next}})
	return next, err
}

// setThemeLocked requires d.mu
func (d *Dashboard) setThemeLocked(ctx context.Context, theme string) error {
	d.theme = theme
	err := d.persistTheme(ctx)
	d.record(activity.Entry{Type: activity.TypeTheme, Summary: "theme set to " + theme})
	return err
}

// Summary is the dashboard header
type Summary struct {
	Today          dates.Date  `json:"today"`
	CompletedToday int         `json:"completedToday"`
	ActiveTasks    int         `json:"activeTasks"`
	Streak         streak.Info `json:"streak"`
	Theme          string      `json:"theme"`
}

// Summary reports today's counters
func (d *Dashboard) Summary() Summary {
	d.mu.Lock()
	defer d.mu.Unlock()

	all := d.tasks.Tasks()
	return Summary{
		Today:          d.cal.Today(),
		CompletedToday: tasks.CompletedToday(all, d.cal),
		ActiveTasks:    tasks.ActiveCount(all),
		Streak:         d.streak,
		Theme:          d.theme,
	}
}
