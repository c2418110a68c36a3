package tasks

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vthunder/daybook/internal/dates"
)

// Urgency buckets a task for the list view; lower sorts first.
type Urgency int

const (
	Overdue Urgency = iota + 1
	DueToday
	DueTomorrow
	Future
	NoDueDate
)

func (u Urgency) String() string {
	switch u {
	case Overdue:
		return "overdue"
	case DueToday:
		return "today"
	case DueTomorrow:
		return "tomorrow"
	case Future:
		return "upcoming"
	case NoDueDate:
		return "no date"
	}
	return fmt.Sprintf("urgency(%d)", int(u))
}

// UrgencyOf classifies t relative to today
func UrgencyOf(t Task, today dates.Date) Urgency {
	if t.DueDate == nil || t.DueDate.IsZero() {
		return NoDueDate
	}
	switch due := *t.DueDate; {
	case due.Before(today):
		return Overdue
	case due == today:
		return DueToday
	case due == today.AddDays(1):
		return DueTomorrow
	default:
		return Future
	}
}

// Visible returns the tasks shown in the list: incomplete ones plus those
// completed today. Sorted by urgency; overdue tasks oldest first, future
// tasks latest first, everything else in stored order.
func Visible(all []Task, cal dates.Calendar) []Task {
	today := cal.Today()
	var out []Task
	for _, t := range all {
		if !t.Completed || cal.IsToday(t.CompletedAt) {
			out = append(out, t)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ui, uj := UrgencyOf(out[i], today), UrgencyOf(out[j], today)
		if ui != uj {
			return ui < uj
		}
		switch ui {
		case Overdue:
			return out[i].DueDate.Before(*out[j].DueDate)
		case Future:
			return out[i].DueDate.After(*out[j].DueDate)
		}
		return false
	})
	return out
}

// Group splits an already sorted list into urgency buckets, keeping order
func Group(sorted []Task, today dates.Date) map[Urgency][]Task {
	groups := map[Urgency][]Task{}
	for _, t := range sorted {
		u := UrgencyOf(t, today)
		groups[u] = append(groups[u], t)
	}
	return groups
}

// HistoryEntry is a completed one-off task with its time to completion
type HistoryEntry struct {
	Task              Task          `json:"task"`
	Duration          time.Duration `json:"duration"`
	CompletedSubtasks []Subtask     `json:"completedSubtasks"`
}

// History lists completed non-recurring tasks, most recently completed first
func History(all []Task) []HistoryEntry {
	var out []HistoryEntry
	for _, t := range all {
		if !t.Completed || t.CompletedAt == nil || t.Recurring() {
			continue
		}
		e := HistoryEntry{Task: t, Duration: t.CompletedAt.Sub(t.CreatedAt)}
		for _, s := range t.Subtasks {
			if s.Completed {
				e.CompletedSubtasks = append(e.CompletedSubtasks, s)
			}
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Task.CompletedAt.After(*out[j].Task.CompletedAt)
	})
	return out
}

// FormatDuration renders a time-to-complete as "2d 3h 15m". Minutes are
// always shown when nothing larger is.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "invalid"
	}
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	mins := int(d % time.Hour / time.Minute)

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if mins > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%dm", mins))
	}
	return strings.Join(parts, " ")
}

// CompletedToday counts tasks (recurring included) completed today
func CompletedToday(all []Task, cal dates.Calendar) int {
	n := 0
	for _, t := range all {
		if t.Completed && cal.IsToday(t.CompletedAt) {
			n++
		}
	}
	return n
}

// ActiveCount counts incomplete tasks
func ActiveCount(all []Task) int {
	n := 0
	for _, t := range all {
		if !t.Completed {
			n++
		}
	}
	return n
}
