package dashboard

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vthunder/daybook/internal/activity"
	"github.com/vthunder/daybook/internal/dates"
	"github.com/vthunder/daybook/internal/store"
	"github.com/vthunder/daybook/internal/streak"
	"github.com/vthunder/daybook/internal/tasks"
	"github.com/vthunder/daybook/internal/weight"
)

var march15 = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func testOptions(clock *dates.FakeClock) Options {
	return Options{Calendar: dates.Calendar{Clock: clock, Loc: time.UTC}}
}

func openTest(t *testing.T, kv store.KV) (*Dashboard, *dates.FakeClock) {
	t.Helper()
	clock := dates.NewFakeClock(march15)
	d, err := Open(context.Background(), kv, testOptions(clock))
	require.NoError(t, err)
	return d, clock
}

func put(t *testing.T, kv store.KV, key, doc string) {
	t.Helper()
	require.NoError(t, kv.Put(context.Background(), key, []byte(doc)))
}

func storedTasks(t *testing.T, kv store.KV) []tasks.Task {
	t.Helper()
	var out []tasks.Task
	require.NoError(t, store.GetJSON(context.Background(), kv, store.KeyTasks, &out))
	return out
}

func storedStreak(t *testing.T, kv store.KV) streak.Info {
	t.Helper()
	var out streak.Info
	require.NoError(t, store.GetJSON(context.Background(), kv, store.KeyStreak, &out))
	return out
}

func TestOpen_EmptyStore(t *testing.T) {
	kv := store.NewMemory()
	d, _ := openTest(t, kv)

	assert.Empty(t, d.Tasks())
	assert.Empty(t, d.Weights())
	assert.Equal(t, streak.Info{}, d.Streak())
	assert.Equal(t, "light", d.Theme())

	keys, err := kv.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys, "opening an empty store writes nothing")
}

func TestOpen_DegradesPerDocument(t *testing.T) {
	kv := store.NewMemory()
	put(t, kv, store.KeyTasks, `{this is not json`)
	put(t, kv, store.KeyWeights, `[{"id":1,"date":"2024-03-01","weight":180}]`)
	put(t, kv, store.KeyStreak, `{"count":-4,"lastCompletionDate":null}`)
	put(t, kv, store.KeyTheme, `purple`)

	d, _ := openTest(t, kv)
	assert.Empty(t, d.Tasks())
	require.Len(t, d.Weights(), 1)
	assert.Equal(t, 180.0, d.Weights()[0].Weight)
	assert.Equal(t, streak.Info{}, d.Streak())
	assert.Equal(t, "light", d.Theme())
}

func TestOpen_RollsRecurringTasksForward(t *testing.T) {
	kv := store.NewMemory()
	// documents as the browser app wrote them: no subtasks field, ISO timestamps
	put(t, kv, store.KeyTasks, `[
		{"id":1703066400000,"text":"Pay rent","dueDate":"2024-01-01","notes":"","recurrenceRule":"FREQ=MONTHLY",
		 "completed":true,"createdAt":"2023-12-20T10:00:00.000Z","completedAt":"2024-01-01T09:00:00.000Z"},
		{"id":1703066400001,"text":"Broken","dueDate":"2024-01-01","notes":"","recurrenceRule":"FREQ=NEVER",
		 "completed":false,"createdAt":"2023-12-20T10:00:00.000Z","completedAt":null,"subtasks":[]}
	]`)

	d, _ := openTest(t, kv)
	rent, err := d.Task(1703066400000)
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01", rent.DueDate.String())
	assert.False(t, rent.Completed)
	assert.Nil(t, rent.CompletedAt)
	assert.NotNil(t, rent.Subtasks)

	broken, err := d.Task(1703066400001)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", broken.DueDate.String(), "a bad rule leaves its task alone")

	persisted := storedTasks(t, kv)
	require.Len(t, persisted, 2)
	assert.Equal(t, "2024-04-01", persisted[0].DueDate.String())

	// reopening the same day changes nothing further
	again, _ := openTest(t, kv)
	assert.Equal(t, d.Tasks(), again.Tasks())
}

func TestOpen_ResetsLapsedStreak(t *testing.T) {
	kv := store.NewMemory()
	put(t, kv, store.KeyStreak, `{"count":9,"lastCompletionDate":"2024-03-10"}`)

	d, _ := openTest(t, kv)
	assert.Equal(t, streak.Info{}, d.Streak())
	assert.Equal(t, streak.Info{}, storedStreak(t, kv))
}

func TestOpen_KeepsStreakFromYesterday(t *testing.T) {
	kv := store.NewMemory()
	put(t, kv, store.KeyStreak, `{"count":3,"lastCompletionDate":"2024-03-14"}`)

	d, _ := openTest(t, kv)
	assert.Equal(t, 3, d.Streak().Count)
}

func TestStreakScenario(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	put(t, kv, store.KeyTasks, `[{"id":1,"text":"yesterday's task","dueDate":null,"notes":"","completed":true,
		"createdAt":"2024-03-14T08:00:00Z","completedAt":"2024-03-14T17:00:00Z","subtasks":[]}]`)
	put(t, kv, store.KeyStreak, `{"count":3,"lastCompletionDate":"2024-03-14"}`)

	d, _ := openTest(t, kv)
	require.Equal(t, 3, d.Streak().Count)

	var events []Event
	cancel := d.Subscribe(func(e Event) { events = append(events, e) })
	defer cancel()

	task, err := d.AddTask(ctx, tasks.NewTask{Text: "Write report"})
	require.NoError(t, err)
	_, err = d.ToggleTask(ctx, task.ID, 0)
	require.NoError(t, err)

	assert.Equal(t, 4, d.Streak().Count)
	assert.Equal(t, "2024-03-15", d.Streak().LastCompletionDate.String())
	assert.Equal(t, 4, storedStreak(t, kv).Count)

	_, err = d.ToggleTask(ctx, task.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Streak().Count)
	assert.Equal(t, "2024-03-14", d.Streak().LastCompletionDate.String())
	assert.Equal(t, "2024-03-14", storedStreak(t, kv).LastCompletionDate.String())

	var kinds []EventKind
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []EventKind{EventTasks, EventTasks, EventStreak, EventTasks, EventStreak}, kinds)
}

func TestRecurringCompletionDoesNotCountTowardStreak(t *testing.T) {
	ctx := context.Background()
	d, _ := openTest(t, store.NewMemory())

	task, err := d.AddTask(ctx, tasks.NewTask{Text: "Meds", DueDate: dates.MustParse("2024-03-15").Ptr(), RecurrenceRule: "daily"})
	require.NoError(t, err)
	_, err = d.ToggleTask(ctx, task.ID, 0)
	require.NoError(t, err)

	assert.Zero(t, d.Streak().Count)
	assert.Equal(t, 1, d.Summary().CompletedToday)
}

func TestTaskOperationsWriteThrough(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	d, _ := openTest(t, kv)

	a, err := d.AddTask(ctx, tasks.NewTask{Text: "Plan trip"})
	require.NoError(t, err)
	sub, err := d.AddSubtask(ctx, a.ID, "book hotel")
	require.NoError(t, err)
	newText := "book hostel"
	_, err = d.UpdateSubtask(ctx, a.ID, sub.ID, tasks.SubtaskPatch{Text: &newText})
	require.NoError(t, err)
	_, err = d.ToggleTask(ctx, a.ID, sub.ID)
	require.NoError(t, err)

	persisted := storedTasks(t, kv)
	require.Len(t, persisted, 1)
	assert.True(t, persisted[0].Completed, "completing the only subtask completes the task")
	assert.Equal(t, "book hostel", persisted[0].Subtasks[0].Text)

	b, _ := d.AddTask(ctx, tasks.NewTask{Text: "Recurring", DueDate: dates.MustParse("2024-03-15").Ptr(), RecurrenceRule: "weekly"})
	_, _ = d.ToggleTask(ctx, b.ID, 0)

	n, err := d.ClearHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	persisted = storedTasks(t, kv)
	require.Len(t, persisted, 1)
	assert.Equal(t, b.ID, persisted[0].ID)

	require.NoError(t, d.DeleteTask(ctx, b.ID))
	assert.Empty(t, storedTasks(t, kv))
	assert.True(t, errors.Is(d.DeleteTask(ctx, b.ID), tasks.ErrNotFound))
}

func TestValidationLeavesStateAndStoreUntouched(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	d, _ := openTest(t, kv)

	fired := 0
	d.Subscribe(func(Event) { fired++ })

	_, err := d.AddTask(ctx, tasks.NewTask{Text: " "})
	assert.True(t, errors.Is(err, tasks.ErrEmptyText))
	_, err = d.AddTask(ctx, tasks.NewTask{Text: "x", RecurrenceRule: "daily"})
	assert.True(t, errors.Is(err, tasks.ErrRecurrenceWithoutDueDate))
	_, err = d.AddWeight(ctx, dates.MustParse("2024-03-01"), -1)
	assert.True(t, errors.Is(err, weight.ErrInvalidWeight))

	assert.Zero(t, fired)
	_, err = kv.Get(ctx, store.KeyTasks)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestWeights(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	d, _ := openTest(t, kv)

	_, err := d.AddWeight(ctx, dates.MustParse("2024-03-08"), 178.5)
	require.NoError(t, err)
	first, err := d.AddWeight(ctx, dates.MustParse("2024-03-01"), 180)
	require.NoError(t, err)
	_, err = d.AddWeight(ctx, dates.MustParse("2024-03-01"), 181)
	assert.True(t, errors.Is(err, weight.ErrDuplicateDate))

	stats, ok := d.WeightStats()
	require.True(t, ok)
	assert.Equal(t, -1.5, stats.WeeklyChange)
	assert.Equal(t, 7, stats.DaysCovered)

	var persisted []weight.Entry
	require.NoError(t, store.GetJSON(ctx, kv, store.KeyWeights, &persisted))
	require.Len(t, persisted, 2)
	assert.Equal(t, "2024-03-01", persisted[0].Date.String())

	require.NoError(t, d.DeleteWeight(ctx, first.ID))
	assert.Len(t, d.Weights(), 1)
	assert.True(t, errors.Is(d.DeleteWeight(ctx, first.ID), weight.ErrNotFound))
}

func TestTheme(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	clock := dates.NewFakeClock(march15)

	opts := testOptions(clock)
	opts.Theme = "dark"
	d, err := Open(ctx, kv, opts)
	require.NoError(t, err)
	assert.Equal(t, "dark", d.Theme(), "configured theme applies when nothing is stored")

	next, err := d.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, "light", next)
	raw, err := kv.Get(ctx, store.KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "light", string(raw))

	assert.Error(t, d.SetTheme(ctx, "sepia"))

	// the stored preference beats configuration
	d, err = Open(ctx, kv, opts)
	require.NoError(t, err)
	assert.Equal(t, "light", d.Theme())

	opts.Theme = ""
	opts.TerminalHint = "15;0"
	d, err = Open(ctx, store.NewMemory(), opts)
	require.NoError(t, err)
	assert.Equal(t, "dark", d.Theme())
}

func TestResetStreak(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	put(t, kv, store.KeyStreak, `{"count":3,"lastCompletionDate":"2024-03-14"}`)
	d, _ := openTest(t, kv)

	var got []Event
	d.Subscribe(func(e Event) { got = append(got, e) })
	require.NoError(t, d.ResetStreak(ctx))
	assert.Equal(t, streak.Info{}, d.Streak())
	assert.Equal(t, streak.Info{}, storedStreak(t, kv))
	require.Len(t, got, 1)
	assert.Equal(t, EventStreak, got[0].Kind)
}

func TestSubscribeCancel(t *testing.T) {
	ctx := context.Background()
	d, _ := openTest(t, store.NewMemory())

	calls := 0
	cancel := d.Subscribe(func(Event) { calls++ })
	_, _ = d.AddTask(ctx, tasks.NewTask{Text: "a"})
	cancel()
	_, _ = d.AddTask(ctx, tasks.NewTask{Text: "b"})
	assert.Equal(t, 1, calls)
}

func TestObserverMayReadDashboard(t *testing.T) {
	ctx := context.Background()
	d, _ := openTest(t, store.NewMemory())

	var seen int
	d.Subscribe(func(e Event) {
		if e.Kind == EventTasks {
			seen = len(d.Tasks())
		}
	})
	_, err := d.AddTask(ctx, tasks.NewTask{Text: "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, seen)
}

// failingKV rejects writes after Open
type failingKV struct {
	*store.Memory
	fail bool
}

func (f *failingKV) Put(ctx context.Context, key string, value []byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Memory.Put(ctx, key, value)
}

func TestPersistFailureIsReported(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{Memory: store.NewMemory()}
	d, _ := openTest(t, kv)
	kv.fail = true

	task, err := d.AddTask(ctx, tasks.NewTask{Text: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	_, getErr := d.Task(task.ID)
	assert.NoError(t, getErr, "the in-memory change is kept")
}

func TestConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	d, _ := openTest(t, store.NewMemory())

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.AddTask(ctx, tasks.NewTask{Text: "parallel"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all := d.Tasks()
	require.Len(t, all, 25)
	seen := map[tasks.ID]bool{}
	for _, task := range all {
		assert.False(t, seen[task.ID], "duplicate id %d", task.ID)
		seen[task.ID] = true
	}
}

func TestActivityJournal(t *testing.T) {
	ctx := context.Background()
	clock := dates.NewFakeClock(march15)
	log := activity.New(filepath.Join(t.TempDir(), "state"), clock)
	opts := testOptions(clock)
	opts.Activity = log

	d, err := Open(ctx, store.NewMemory(), opts)
	require.NoError(t, err)
	task, err := d.AddTask(ctx, tasks.NewTask{Text: "Journal me"})
	require.NoError(t, err)
	_, err = d.ToggleTask(ctx, task.ID, 0)
	require.NoError(t, err)

	entries, err := log.Recent(0)
	require.NoError(t, err)
	var types []activity.Type
	for _, e := range entries {
		types = append(types, e.Type)
	}
	assert.Equal(t, []activity.Type{activity.TypeTaskAdded, activity.TypeStreak, activity.TypeTaskCompleted}, types)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	d, _ := openTest(t, store.NewMemory())
	a, _ := d.AddTask(ctx, tasks.NewTask{Text: "a"})
	_, _ = d.AddTask(ctx, tasks.NewTask{Text: "b"})
	_, _ = d.ToggleTask(ctx, a.ID, 0)

	s := d.Summary()
	assert.Equal(t, "2024-03-15", s.Today.String())
	assert.Equal(t, 1, s.CompletedToday)
	assert.Equal(t, 1, s.ActiveTasks)
	assert.Equal(t, 1, s.Streak.Count)
}

func openJournaled(t *testing.T, kv store.KV) (*Dashboard, *activity.Log) {
	t.Helper()
	clock := dates.NewFakeClock(march15)
	log := activity.New(filepath.Join(t.TempDir(), "state"), clock)
	opts := testOptions(clock)
	opts.Activity = log
	d, err := Open(context.Background(), kv, opts)
	require.NoError(t, err)
	return d, log
}

func TestOpen_JournalsTasksThatFailToRoll(t *testing.T) {
	kv := store.NewMemory()
	put(t, kv, store.KeyTasks, `[
		{"id":7,"text":"Broken","dueDate":"2024-01-01","notes":"","recurrenceRule":"FREQ=NEVER",
		 "completed":false,"createdAt":"2023-12-20T10:00:00.000Z","completedAt":null,"subtasks":[]}
	]`)

	_, log := openJournaled(t, kv)
	failures, err := log.ByType(activity.TypeError, 0)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, float64(7), failures[0].Data["task_id"])
	assert.Contains(t, failures[0].Data["error"], "FREQ=NEVER")
}

func TestPersistFailureIsJournaled(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{Memory: store.NewMemory()}
	d, log := openJournaled(t, kv)
	kv.fail = true

	_, err := d.AddTask(ctx, tasks.NewTask{Text: "a"})
	require.Error(t, err)
	_, err = d.AddWeight(ctx, dates.MustParse("2024-03-15"), 180)
	require.Error(t, err)

	failures, err := log.ByType(activity.TypeError, 0)
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Equal(t, store.KeyWeights, failures[0].Data["key"])
	assert.Equal(t, store.KeyTasks, failures[1].Data["key"])
	assert.Equal(t, "disk full", failures[0].Data["error"])
}

func TestToggleTheme_ConcurrentTogglesPair(t *testing.T) {
	ctx := context.Background()
	d, _ := openTest(t, store.NewMemory())
	start := d.Theme()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.ToggleTheme(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, start, d.Theme(), "an even number of toggles lands back on the start theme")
}

func TestRecentWeightsAndSeries(t *testing.T) {
	ctx := context.Background()
	d, _ := openTest(t, store.NewMemory())
	for i, w := range []float64{180, 179.5, 179} {
		_, err := d.AddWeight(ctx, dates.MustParse("2024-03-01").AddDays(i), w)
		require.NoError(t, err)
	}

	recent := d.RecentWeights(2)
	require.Len(t, recent, 2)
	assert.Equal(t, 179.0, recent[0].Weight)
	assert.Len(t, d.RecentWeights(1<<30), 3)
	assert.Len(t, d.RecentWeights(0), 3)

	series := d.WeightSeries()
	require.Len(t, series, 3)
	assert.Equal(t, weight.Point{Date: dates.MustParse("2024-03-01"), Weight: 180}, series[0])
}
