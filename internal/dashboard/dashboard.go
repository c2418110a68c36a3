// Package dashboard is the state container behind the CLI and the tool
// server. It owns the task collection, the weight log, the streak and the
// theme, and writes every change through to the store before returning.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vthunder/daybook/internal/activity"
	"github.com/vthunder/daybook/internal/config"
	"github.com/vthunder/daybook/internal/dates"
	"github.com/vthunder/daybook/internal/ids"
	"github.com/vthunder/daybook/internal/logging"
	"github.com/vthunder/daybook/internal/store"
	"github.com/vthunder/daybook/internal/streak"
	"github.com/vthunder/daybook/internal/tasks"
	"github.com/vthunder/daybook/internal/weight"
)

// Options configures Open
type Options struct {
	Calendar dates.Calendar
	// Theme is the configured default, used when no preference is stored
	Theme string
	// TerminalHint is the COLORFGBG value, consulted after Theme
	TerminalHint string
	// Activity receives a journal entry per change; nil disables it
	Activity *activity.Log
}

// Dashboard serialises all reads and writes behind one mutex
type Dashboard struct {
	mu       sync.Mutex
	kv       store.KV
	cal      dates.Calendar
	tasks    *tasks.Repository
	weights  *weight.Log
	streak   streak.Info
	theme    string
	activity *activity.Log

	observers    map[int]func(Event)
	nextObserver int
}

// Open loads the four documents from kv, each falling back to its default
// when missing or unreadable, then brings the state up to date: a lapsed
// streak is reset and overdue recurring tasks roll forward. Anything that
// changed is written back.
func Open(ctx context.Context, kv store.KV, opts Options) (*Dashboard, error) {
	if kv == nil {
		return nil, errors.New("dashboard needs a store")
	}
	gen := ids.NewGenerator(opts.Calendar.Clock)
	d := &Dashboard{
		kv:        kv,
		cal:       opts.Calendar,
		tasks:     tasks.NewRepository(opts.Calendar, gen),
		weights:   weight.NewLog(gen),
		activity:  opts.Activity,
		observers: map[int]func(Event){},
	}

	var loadedTasks []tasks.Task
	loadDocument(ctx, kv, store.KeyTasks, &loadedTasks)
	d.tasks.Load(loadedTasks)

	var entries []weight.Entry
	loadDocument(ctx, kv, store.KeyWeights, &entries)
	if dropped := d.weights.Load(entries); dropped > 0 {
		logging.Warn("dashboard", "Ignored %d invalid weight entries", dropped)
	}

	var info streak.Info
	if loadDocument(ctx, kv, store.KeyStreak, &info) && !info.Valid() {
		logging.Warn("dashboard", "Ignoring invalid streak record %+v", info)
		info = streak.Reset()
	}
	d.streak = info

	stored := loadTheme(ctx, kv)
	d.theme = config.ResolveTheme(stored, opts.Theme, opts.TerminalHint)

	d.tasks.OnChange(d.recalculateStreak)

	if err := d.settle(ctx); err != nil {
		return nil, err
	}
	logging.Debug("dashboard", "Opened: %d tasks, %d weigh-ins, streak %d, theme %s",
		d.tasks.Len(), d.weights.Len(), d.streak.Count, d.theme)
	return d, nil
}

// loadDocument decodes key into v and reports whether a usable document was
// found. Missing and corrupt documents leave v at its zero value.
func loadDocument(ctx context.Context, kv store.KV, key string, v any) bool {
	err := store.GetJSON(ctx, kv, key, v)
	switch {
	case err == nil:
		return true
	case errors.Is(err, store.ErrNotFound):
		return false
	default:
		logging.Warn("dashboard", "Using defaults for %s: %v", key, err)
		return false
	}
}

func loadTheme(ctx context.Context, kv store.KV) string {
	raw, err := kv.Get(ctx, store.KeyTheme)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logging.Warn("dashboard", "Failed to read theme: %v", err)
		}
		return ""
	}
	theme := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if theme != config.ThemeDark && theme != config.ThemeLight {
		logging.Warn("dashboard", "Ignoring stored theme %q", theme)
		return ""
	}
	return theme
}

// settle runs the start-of-session checks and persists what they changed.
// Caller holds d.mu or has not published d yet.
func (d *Dashboard) settle(ctx context.Context) error {
	today := d.cal.Today()

	streakChanged := false
	if info, lapsed := streak.ResetIfLapsed(d.streak, today); lapsed {
		d.streak = info
		streakChanged = true
	}

	scanned, report := tasks.Scan(d.tasks.Tasks(), d.cal)
	failed := make([]tasks.ID, 0, len(report.Failed))
	for id := range report.Failed {
		failed = append(failed, id)
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i] < failed[j] })
	for _, id := range failed {
		d.recordError("recurring task not rolled forward", report.Failed[id], map[string]any{"task_id": int64(id)})
	}
	if report.Changed() {
		d.tasks.Load(scanned)
		logging.Info("recurrence", "Rolled forward %d tasks, reset %d", len(report.Advanced), len(report.Reset))
		d.record(activity.Entry{
			Type:    activity.TypeRecurrence,
			Summary: fmt.Sprintf("rolled forward %d recurring tasks", len(report.Advanced)+len(report.Reset)),
			Data: map[string]any{
				"advanced":  report.Advanced,
				"reset":     report.Reset,
				"exhausted": report.Exhausted,
			},
		})
		if err := d.persistTasks(ctx); err != nil {
			return err
		}
	}

	prev := d.streak
	d.recalculateStreak(d.tasks.Tasks())
	if streakChanged || !prev.Equal(d.streak) {
		if err := d.persistStreak(ctx); err != nil {
			return err
		}
	}
	return nil
}

// recalculateStreak is the task repository's change hook
func (d *Dashboard) recalculateStreak(all []tasks.Task) {
	next := streak.Recalculate(d.streak, all, d.cal)
	if !next.Equal(d.streak) && d.activity != nil {
		if err := d.activity.LogStreak(d.streak.Count, next.Count); err != nil {
			logging.Warn("activity", "Failed to record streak change: %v", err)
		}
	}
	d.streak = next
}

func (d *Dashboard) persistTasks(ctx context.Context) error {
	if err := store.PutJSON(ctx, d.kv, store.KeyTasks, d.tasks.Tasks()); err != nil {
		return fmt.Errorf("failed to save tasks: %w", err)
	}
	return nil
}

func (d *Dashboard) persistWeights(ctx context.Context) error {
	if err := store.PutJSON(ctx, d.kv, store.KeyWeights, d.weights.Entries()); err != nil {
		return fmt.Errorf("failed to save weight entries: %w", err)
	}
	return nil
}

func (d *Dashboard) persistStreak(ctx context.Context) error {
	if err := store.PutJSON(ctx, d.kv, store.KeyStreak, d.streak); err != nil {
		return fmt.Errorf("failed to save streak: %w", err)
	}
	return nil
}

func (d *Dashboard) persistTheme(ctx context.Context) error {
	if err := d.kv.Put(ctx, store.KeyTheme, []byte(d.theme)); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	return nil
}

func (d *Dashboard) recordError(summary string, err error, data map[string]any) {
	if d.activity == nil {
		return
	}
	if lerr := d.activity.LogError(summary, err, data); lerr != nil {
		logging.Warn("activity", "Failed to record error: %v", lerr)
	}
}

func (d *Dashboard) record(e activity.Entry) {
	if d.activity == nil {
		return
	}
	if err := d.activity.Log(e); err != nil {
		logging.Warn("activity", "Failed to record %s: %v", e.Type, err)
	}
}

// Calendar is the calendar the dashboard decides "today" with
func (d *Dashboard) Calendar() dates.Calendar {
	return d.cal
}

// mutateTasks runs fn against the repository and writes the tasks, and the
// streak when the change moved it, through to the store. A persistence error
// is returned after the in-memory change has been kept.
func (d *Dashboard) mutateTasks(ctx context.Context, fn func(r *tasks.Repository) (activity.Entry, error)) error {
	d.mu.Lock()
	prev := d.streak
	entry, err := fn(d.tasks)
	if err != nil {
		d.mu.Unlock()
		return err
	}

	events := []Event{{Kind: EventTasks}}
	err = d.persistTasks(ctx)
	if !prev.Equal(d.streak) {
		if serr := d.persistStreak(ctx); err == nil {
			err = serr
		}
		events = append(events, Event{Kind: EventStreak, Streak: d.streak})
	}
	if entry.Type != "" {
		d.record(entry)
	}
	if err != nil {
		logging.Warn("dashboard", "%v", err)
		d.recordError("save failed", err, map[string]any{"key": store.KeyTasks})
	}
	observers := d.observersLocked()
	d.mu.Unlock()

	dispatch(observers, events)
	return err
}

func (d *Dashboard) mutateWeights(ctx context.Context, fn func(l *weight.Log) (activity.Entry, error)) error {
	d.mu.Lock()
	entry, err := fn(d.weights)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	err = d.persistWeights(ctx)
	d.record(entry)
	if err != nil {
		logging.Warn("dashboard", "%v", err)
		d.recordError("save failed", err, map[string]any{"key": store.KeyWeights})
	}
	observers := d.observersLocked()
	d.mu.Unlock()

	dispatch(observers, []Event{{Kind: EventWeights}})
	return err
}
