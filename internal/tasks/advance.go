package tasks

import (
	"fmt"

	"github.com/vthunder/daybook/internal/dates"
	"github.com/vthunder/daybook/internal/logging"
	"github.com/vthunder/daybook/internal/recurrence"
)

// Outcome says what Advance did to a task
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	// due date moved to the next occurrence and completion reset
	OutcomeAdvanced
	// due today but completed on an earlier day; completion reset
	OutcomeCompletionReset
	// overdue and the rule has no further occurrences; left as is
	OutcomeExhausted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeAdvanced:
		return "advanced"
	case OutcomeCompletionReset:
		return "completion-reset"
	case OutcomeExhausted:
		return "exhausted"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Advance rolls an overdue recurring task forward to its next occurrence on
// or after today. A malformed rule returns the task untouched with an error.
func Advance(t Task, cal dates.Calendar) (Task, Outcome, error) {
	if !t.Recurring() || t.DueDate == nil || t.DueDate.IsZero() {
		return t, OutcomeUnchanged, nil
	}
	today := cal.Today()
	due := *t.DueDate
	stale := t.Completed && t.CompletedAt != nil && !cal.IsToday(t.CompletedAt)

	switch {
	case due.Before(today):
		next, ok, err := recurrence.Next(t.RecurrenceRule, due, today)
		if err != nil {
			return t, OutcomeUnchanged, fmt.Errorf("task %d: %w: %v", t.ID, ErrInvalidRecurrence, err)
		}
		if !ok {
			logging.Info("recurrence", "Task %d (%s) has no occurrences after %s", t.ID, logging.Truncate(t.Text, 40), due)
			return t, OutcomeExhausted, nil
		}
		if next == due && !stale {
			return t, OutcomeUnchanged, nil
		}
		out := t.clone()
		out.DueDate = next.Ptr()
		out.Completed = false
		out.CompletedAt = nil
		out.Subtasks = resetSubtasks(t.Subtasks)
		logging.Debug("recurrence", "Task %d advanced %s -> %s", t.ID, due, next)
		return out, OutcomeAdvanced, nil

	case due == today && stale:
		out := t.clone()
		out.Completed = false
		out.CompletedAt = nil
		out.Subtasks = resetSubtasks(t.Subtasks)
		logging.Debug("recurrence", "Task %d due today but completed earlier, reset", t.ID)
		return out, OutcomeCompletionReset, nil
	}
	return t, OutcomeUnchanged, nil
}

// ScanReport summarises a startup scan
type ScanReport struct {
	Advanced  []ID
	Reset     []ID
	Exhausted []ID
	Failed    map[ID]error
}

// Changed reports whether any task was modified
func (r ScanReport) Changed() bool {
	return len(r.Advanced) > 0 || len(r.Reset) > 0
}

// Scan runs Advance over every task. A failing task is kept as is and
// recorded; it never stops the scan.
func Scan(all []Task, cal dates.Calendar) ([]Task, ScanReport) {
	report := ScanReport{Failed: map[ID]error{}}
	out := make([]Task, len(all))
	for i, t := range all {
		next, outcome, err := Advance(t, cal)
		if err != nil {
			logging.Warn("recurrence", "%v", err)
			report.Failed[t.ID] = err
			out[i] = t
			continue
		}
		switch outcome {
		case OutcomeAdvanced:
			report.Advanced = append(report.Advanced, t.ID)
		case OutcomeCompletionReset:
			report.Reset = append(report.Reset, t.ID)
		case OutcomeExhausted:
			report.Exhausted = append(report.Exhausted, t.ID)
		}
		out[i] = next
	}
	return out, report
}
