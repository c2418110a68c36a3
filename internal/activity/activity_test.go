package activity

import (
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vthunder/daybook/internal/dates"
)

func newTestLog(t *testing.T) (*Log, *dates.FakeClock) {
	t.Helper()
	clock := dates.NewFakeClock(time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC))
	return New(t.TempDir(), clock), clock
}

func TestLog_AppendAndRecent(t *testing.T) {
	l, clock := newTestLog(t)

	require.NoError(t, l.Log(Entry{Type: TypeTaskAdded, TaskID: 1, Summary: "added: Buy milk"}))
	clock.Advance(time.Minute)
	require.NoError(t, l.Log(Entry{Type: TypeTaskCompleted, TaskID: 1, Summary: "completed: Buy milk"}))
	clock.Advance(time.Minute)
	require.NoError(t, l.LogStreak(0, 1))

	all, err := l.Recent(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, TypeTaskAdded, all[0].Type)
	assert.Equal(t, int64(1), all[0].TaskID)
	assert.Equal(t, time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC), all[0].Timestamp.UTC())

	last, err := l.Recent(1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, TypeStreak, last[0].Type)
	assert.EqualValues(t, 1, last[0].Data["to"])
}

func TestLog_MissingFileIsEmpty(t *testing.T) {
	l, _ := newTestLog(t)
	entries, err := l.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLog_SkipsMalformedLines(t *testing.T) {
	l, _ := newTestLog(t)
	require.NoError(t, l.Log(Entry{Type: TypeTaskAdded, TaskID: 1, Summary: "one"}))

	f, err := os.OpenFile(l.Path(), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("{garbage\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, l.Log(Entry{Type: TypeTaskDeleted, TaskID: 1, Summary: "two"}))

	entries, err := l.Recent(0)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLog_Queries(t *testing.T) {
	l, clock := newTestLog(t)
	require.NoError(t, l.Log(Entry{Type: TypeTaskAdded, TaskID: 1, Summary: "added: Pay rent"}))
	require.NoError(t, l.Log(Entry{Type: TypeWeight, Summary: "weigh-in", Data: map[string]any{"weight": 178.5}}))
	clock.AdvanceDays(1)
	require.NoError(t, l.Log(Entry{Type: TypeTaskAdded, TaskID: 2, Summary: "added: Stretch"}))
	require.NoError(t, l.LogError("persist failed", errors.New("disk full"), nil))

	added, err := l.ByType(TypeTaskAdded, 10)
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, int64(2), added[0].TaskID, "newest first")

	unbounded, err := l.ByType(TypeTaskAdded, 0)
	require.NoError(t, err)
	assert.Len(t, unbounded, 2)
	everything, err := l.Search("", 0)
	require.NoError(t, err)
	assert.Len(t, everything, 4)

	found, err := l.Search("RENT", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = l.Search("disk full", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, TypeError, found[0].Type)

	day, err := l.On(dates.MustParse("2024-03-15"), time.UTC)
	require.NoError(t, err)
	assert.Len(t, day, 2)
}

func TestLog_ConcurrentWrites(t *testing.T) {
	l, _ := newTestLog(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, l.Log(Entry{Type: TypeTaskUpdated, TaskID: int64(i), Summary: "edit"}))
		}(i)
	}
	wg.Wait()

	entries, err := l.Recent(0)
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}
