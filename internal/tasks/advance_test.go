package tasks

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance_PayRent(t *testing.T) {
	task := Task{ID: 1, Text: "Pay rent", DueDate: due("2024-01-01"), RecurrenceRule: "FREQ=MONTHLY",
		Completed: true, CompletedAt: at("2024-01-01T12:00:00Z"),
		Subtasks: []Subtask{{ID: 2, Text: "transfer", Completed: true}}}

	got, outcome, err := Advance(task, testCalendar())
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvanced, outcome)
	assert.Equal(t, "2024-04-01", got.DueDate.String())
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt)
	assert.False(t, got.Subtasks[0].Completed)

	// the input is not modified
	assert.True(t, task.Subtasks[0].Completed)
	assert.Equal(t, "2024-01-01", task.DueDate.String())
}

func TestAdvance_DailyLandsOnToday(t *testing.T) {
	task := Task{ID: 1, Text: "Meds", DueDate: due("2024-03-12"), RecurrenceRule: "FREQ=DAILY"}
	got, outcome, err := Advance(task, testCalendar())
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvanced, outcome)
	assert.Equal(t, "2024-03-15", got.DueDate.String())
}

func TestAdvance_StaleCompletionDueToday(t *testing.T) {
	task := Task{ID: 1, Text: "Meds", DueDate: due("2024-03-15"), RecurrenceRule: "FREQ=DAILY",
		Completed: true, CompletedAt: at("2024-03-14T21:00:00Z"),
		Subtasks: []Subtask{{ID: 2, Text: "am", Completed: true}}}

	got, outcome, err := Advance(task, testCalendar())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompletionReset, outcome)
	assert.Equal(t, "2024-03-15", got.DueDate.String())
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt)
	assert.False(t, got.Subtasks[0].Completed)
}

func TestAdvance_LeavesOthersAlone(t *testing.T) {
	cal := testCalendar()
	cases := map[string]Task{
		"one-off overdue":         {ID: 1, Text: "x", DueDate: due("2024-03-01")},
		"rule without due date":   {ID: 2, Text: "x", RecurrenceRule: "FREQ=DAILY"},
		"due in the future":       {ID: 3, Text: "x", DueDate: due("2024-03-20"), RecurrenceRule: "FREQ=DAILY"},
		"due today, done today":   {ID: 4, Text: "x", DueDate: due("2024-03-15"), RecurrenceRule: "FREQ=DAILY", Completed: true, CompletedAt: at("2024-03-15T09:00:00Z")},
		"due today, not yet done": {ID: 5, Text: "x", DueDate: due("2024-03-15"), RecurrenceRule: "FREQ=DAILY"},
	}
	for name, task := range cases {
		got, outcome, err := Advance(task, cal)
		require.NoError(t, err, name)
		assert.Equal(t, OutcomeUnchanged, outcome, name)
		assert.Equal(t, task, got, name)
	}
}

func TestAdvance_Exhausted(t *testing.T) {
	task := Task{ID: 1, Text: "Course", DueDate: due("2024-03-01"), RecurrenceRule: "FREQ=DAILY;COUNT=3", Completed: true, CompletedAt: at("2024-03-03T10:00:00Z")}
	got, outcome, err := Advance(task, testCalendar())
	require.NoError(t, err)
	assert.Equal(t, OutcomeExhausted, outcome)
	assert.Equal(t, task, got)
}

func TestAdvance_MalformedRule(t *testing.T) {
	task := Task{ID: 1, Text: "Broken", DueDate: due("2024-03-01"), RecurrenceRule: "FREQ=SOMETIMES"}
	got, outcome, err := Advance(task, testCalendar())
	assert.True(t, errors.Is(err, ErrInvalidRecurrence))
	assert.Equal(t, OutcomeUnchanged, outcome)
	assert.Equal(t, task, got)
}

func TestScan_ContinuesPastFailuresAndIsIdempotent(t *testing.T) {
	cal := testCalendar()
	all := []Task{
		{ID: 1, Text: "Broken", DueDate: due("2024-03-01"), RecurrenceRule: "FREQ=SOMETIMES", Subtasks: []Subtask{}},
		{ID: 2, Text: "Pay rent", DueDate: due("2024-01-01"), RecurrenceRule: "FREQ=MONTHLY", Subtasks: []Subtask{}},
		{ID: 3, Text: "Meds", DueDate: due("2024-03-15"), RecurrenceRule: "FREQ=DAILY", Completed: true, CompletedAt: at("2024-03-14T21:00:00Z"), Subtasks: []Subtask{}},
		{ID: 4, Text: "One-off", Subtasks: []Subtask{}},
	}

	once, report := Scan(all, cal)
	assert.True(t, report.Changed())
	assert.Equal(t, []ID{2}, report.Advanced)
	assert.Equal(t, []ID{3}, report.Reset)
	require.Contains(t, report.Failed, ID(1))
	assert.Equal(t, all[0], once[0])
	assert.Equal(t, "2024-04-01", once[1].DueDate.String())

	twice, report := Scan(once, cal)
	assert.False(t, report.Changed())
	assert.Equal(t, once, twice)
}
