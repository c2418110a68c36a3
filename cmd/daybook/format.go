package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vthunder/daybook/internal/dashboard"
	"github.com/vthunder/daybook/internal/dates"
	"github.com/vthunder/daybook/internal/recurrence"
	"github.com/vthunder/daybook/internal/tasks"
)

type dashboardView struct {
	Summary dashboard.Summary `json:"summary"`
	Tasks   []tasks.Task      `json:"tasks"`
}

var groupTitles = []struct {
	urgency tasks.Urgency
	title   string
}{
	{tasks.Overdue, "Overdue"},
	{tasks.DueToday, "Today"},
	{tasks.DueTomorrow, "Tomorrow"},
	{tasks.Future, "Upcoming"},
	{tasks.NoDueDate, "No due date"},
}

func printSummary(w io.Writer, s dashboard.Summary) {
	fmt.Fprintf(w, "%s  |  %d done today  |  %d open  |  streak %d %s\n",
		s.Today, s.CompletedToday, s.ActiveTasks, s.Streak.Count, plural(s.Streak.Count, "day", "days"))
}

// printTaskList prints the sorted list grouped by urgency. Positions are
// 1-based over the whole list and can be used in place of task IDs.
func printTaskList(w io.Writer, sorted []tasks.Task, cal dates.Calendar) {
	if len(sorted) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	today := cal.Today()
	groups := tasks.Group(sorted, today)
	pos := map[tasks.ID]int{}
	for i, t := range sorted {
		pos[t.ID] = i + 1
	}
	for _, g := range groupTitles {
		list := groups[g.urgency]
		if len(list) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s (%d)\n", g.title, len(list))
		for _, t := range list {
			printTaskLine(w, pos[t.ID], t)
		}
	}
}

func printTaskLine(w io.Writer, pos int, t tasks.Task) {
	var meta []string
	if t.DueDate != nil {
		meta = append(meta, "due "+t.DueDate.String())
	}
	if t.Recurring() {
		meta = append(meta, recurrence.Describe(t.RecurrenceRule))
	}
	if done, total := t.SubtaskProgress(); total > 0 {
		meta = append(meta, fmt.Sprintf("%d/%d", done, total))
	}
	line := fmt.Sprintf("  %2d. %s %s", pos, checkbox(t.Completed), t.Text)
	if len(meta) > 0 {
		line += "  (" + strings.Join(meta, ", ") + ")"
	}
	fmt.Fprintln(w, line)
}

func printTaskDetail(w io.Writer, t tasks.Task, today dates.Date) {
	fmt.Fprintf(w, "%s %s\n", checkbox(t.Completed), t.Text)
	fmt.Fprintf(w, "  id:       %d\n", t.ID)
	fmt.Fprintf(w, "  status:   %s\n", tasks.UrgencyOf(t, today))
	if t.DueDate != nil {
		fmt.Fprintf(w, "  due:      %s\n", t.DueDate)
	}
	if t.Recurring() {
		fmt.Fprintf(w, "  repeats:  %s (%s)\n", recurrence.Describe(t.RecurrenceRule), t.RecurrenceRule)
		if next := upcoming(t, 3); len(next) > 0 {
			fmt.Fprintf(w, "  upcoming: %s\n", strings.Join(next, ", "))
		}
	}
	fmt.Fprintf(w, "  created:  %s\n", t.CreatedAt.Format("2006-01-02 15:04"))
	if t.CompletedAt != nil {
		fmt.Fprintf(w, "  done:     %s\n", t.CompletedAt.Format("2006-01-02 15:04"))
	}
	if t.Notes != "" {
		fmt.Fprintf(w, "  notes:    %s\n", t.Notes)
	}
	for _, s := range t.Subtasks {
		fmt.Fprintf(w, "    %s %s  #%d\n", checkbox(s.Completed), s.Text, s.ID)
	}
}

// upcoming lists the next n occurrences of a recurring task from its due date
func upcoming(t tasks.Task, n int) []string {
	if t.DueDate == nil {
		return nil
	}
	r, err := recurrence.Parse(t.RecurrenceRule, *t.DueDate)
	if err != nil {
		return nil
	}
	var out []string
	for _, day := range r.Between(*t.DueDate, t.DueDate.AddDays(5*366), n) {
		out = append(out, day.String())
	}
	return out
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// resolveTask accepts a task ID or a position in the visible list
func resolveTask(d *dashboard.Dashboard, ref string) (tasks.Task, error) {
	return resolveTaskIn(d, ref, d.VisibleTasks())
}

// resolveTaskIn accepts a task ID or a 1-based position in list
func resolveTaskIn(d *dashboard.Dashboard, ref string, list []tasks.Task) (tasks.Task, error) {
	n, err := strconv.ParseInt(strings.TrimPrefix(ref, "#"), 10, 64)
	if err != nil {
		return tasks.Task{}, fmt.Errorf("invalid task reference %q", ref)
	}
	if t, err := d.Task(tasks.ID(n)); err == nil {
		return t, nil
	}
	if n >= 1 && n <= int64(len(list)) {
		return list[n-1], nil
	}
	return tasks.Task{}, fmt.Errorf("%w: %s", tasks.ErrNotFound, ref)
}

// resolveSubtask accepts a subtask ID or a 1-based position in the task
func resolveSubtask(t tasks.Task, ref string) (tasks.Subtask, error) {
	n, err := strconv.ParseInt(strings.TrimPrefix(ref, "#"), 10, 64)
	if err != nil {
		return tasks.Subtask{}, fmt.Errorf("invalid subtask reference %q", ref)
	}
	if s, ok := t.Subtask(tasks.ID(n)); ok {
		return s, nil
	}
	if n >= 1 && n <= int64(len(t.Subtasks)) {
		return t.Subtasks[n-1], nil
	}
	return tasks.Subtask{}, fmt.Errorf("%w: %s", tasks.ErrSubtaskNotFound, ref)
}

// parseDay reads YYYY-MM-DD, today, tomorrow or yesterday
func parseDay(s string, cal dates.Calendar) (dates.Date, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return cal.Today(), nil
	case "tomorrow":
		return cal.Today().AddDays(1), nil
	case "yesterday":
		return cal.Yesterday(), nil
	}
	return dates.Parse(s)
}
