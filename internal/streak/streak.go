// Package streak derives the consecutive-day completion streak from the task
// collection. Only non-recurring tasks count toward it.
package streak

import (
	"github.com/vthunder/daybook/internal/dates"
	"github.com/vthunder/daybook/internal/logging"
	"github.com/vthunder/daybook/internal/tasks"
)

// Info is the persisted streak record
type Info struct {
	Count              int         `json:"count" yaml:"count"`
	LastCompletionDate *dates.Date `json:"lastCompletionDate" yaml:"lastCompletionDate,omitempty"`
}

// Reset returns the empty streak
func Reset() Info {
	return Info{}
}

// Valid reports whether a loaded record can be used as is
func (i Info) Valid() bool {
	return i.Count >= 0
}

func (i Info) lastIs(d dates.Date) bool {
	return i.LastCompletionDate != nil && *i.LastCompletionDate == d
}

// Equal compares two records by value
func (i Info) Equal(o Info) bool {
	if i.Count != o.Count {
		return false
	}
	if i.LastCompletionDate == nil || o.LastCompletionDate == nil {
		return i.LastCompletionDate == nil && o.LastCompletionDate == nil
	}
	return *i.LastCompletionDate == *o.LastCompletionDate
}

// completedOn reports whether a non-recurring task was completed on day
func completedOn(all []tasks.Task, day dates.Date, cal dates.Calendar) bool {
	for _, t := range all {
		if t.Recurring() || !t.Completed || t.CompletedAt == nil {
			continue
		}
		if cal.DateOf(*t.CompletedAt) == day {
			return true
		}
	}
	return false
}

// Recalculate updates info after the task collection changed. A completion
// today extends a streak that ended yesterday or starts a new one; undoing
// today's last completion rolls back one day when yesterday still has a
// completion, otherwise clears the streak. Calling it again with the same
// inputs changes nothing.
func Recalculate(info Info, all []tasks.Task, cal dates.Calendar) Info {
	today := cal.Today()
	yesterday := today.AddDays(-1)
	doneToday := completedOn(all, today, cal)

	switch {
	case doneToday && !info.lastIs(today):
		if info.lastIs(yesterday) {
			info.Count++
		} else {
			info.Count = 1
		}
		info.LastCompletionDate = today.Ptr()
		logging.Debug("streak", "Extended to %d", info.Count)

	case !doneToday && info.lastIs(today):
		if info.Count > 1 && completedOn(all, yesterday, cal) {
			info.Count--
			info.LastCompletionDate = yesterday.Ptr()
			logging.Debug("streak", "Rolled back to %d", info.Count)
		} else {
			info = Reset()
			logging.Debug("streak", "Cleared")
		}
	}
	return info
}

// ResetIfLapsed clears the streak when its last completion is more than a
// day away from today. It reports whether anything changed.
func ResetIfLapsed(info Info, today dates.Date) (Info, bool) {
	if info.LastCompletionDate == nil {
		return info, false
	}
	gap := info.LastCompletionDate.DaysUntil(today)
	if gap < 0 {
		gap = -gap
	}
	if gap > 1 {
		logging.Info("streak", "Streak of %d reset: last completion %s", info.Count, info.LastCompletionDate)
		return Reset(), true
	}
	return info, false
}
