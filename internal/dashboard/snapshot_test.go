package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vthunder/daybook/internal/dates"
	"github.com/vthunder/daybook/internal/store"
	"github.com/vthunder/daybook/internal/tasks"
)

func populated(t *testing.T) *Dashboard {
	t.Helper()
	ctx := context.Background()
	d, _ := openTest(t, store.NewMemory())

	rent, err := d.AddTask(ctx, tasks.NewTask{Text: "Pay rent", DueDate: dates.MustParse("2024-04-01").Ptr(), RecurrenceRule: "monthly", Notes: "landlord"})
	require.NoError(t, err)
	_, err = d.AddSubtask(ctx, rent.ID, "transfer")
	require.NoError(t, err)
	done, err := d.AddTask(ctx, tasks.NewTask{Text: "Renew passport"})
	require.NoError(t, err)
	_, err = d.ToggleTask(ctx, done.ID, 0)
	require.NoError(t, err)
	_, err = d.AddWeight(ctx, dates.MustParse("2024-03-01"), 180)
	require.NoError(t, err)
	_, err = d.AddWeight(ctx, dates.MustParse("2024-03-08"), 178.5)
	require.NoError(t, err)
	require.NoError(t, d.SetTheme(ctx, "dark"))
	return d
}

func TestSnapshot_RestoreIntoFreshDashboard(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatYAML} {
		t.Run(format, func(t *testing.T) {
			ctx := context.Background()
			src := populated(t)
			snap := src.Snapshot()

			data, err := snap.Encode(format)
			require.NoError(t, err)
			decoded, err := DecodeSnapshot(data, format)
			require.NoError(t, err)

			kv := store.NewMemory()
			dst, _ := openTest(t, kv)
			var events []EventKind
			dst.Subscribe(func(e Event) { events = append(events, e.Kind) })
			require.NoError(t, dst.Restore(ctx, decoded))

			require.Len(t, dst.Tasks(), 2)
			rent := dst.Tasks()[0]
			assert.Equal(t, "Pay rent", rent.Text)
			assert.Equal(t, "2024-04-01", rent.DueDate.String())
			assert.Equal(t, "FREQ=MONTHLY", rent.RecurrenceRule)
			require.Len(t, rent.Subtasks, 1)
			assert.True(t, dst.Tasks()[1].Completed)

			assert.Len(t, dst.Weights(), 2)
			assert.Equal(t, 1, dst.Streak().Count)
			assert.Equal(t, "dark", dst.Theme())
			assert.ElementsMatch(t, []EventKind{EventTasks, EventWeights, EventStreak, EventTheme}, events)

			// everything was written through
			reopened, _ := openTest(t, kv)
			assert.Equal(t, len(dst.Tasks()), len(reopened.Tasks()))
			assert.Equal(t, "dark", reopened.Theme())
			assert.Equal(t, 1, reopened.Streak().Count)
		})
	}
}

func TestSnapshot_Errors(t *testing.T) {
	_, err := Snapshot{}.Encode("xml")
	assert.Error(t, err)

	_, err = DecodeSnapshot([]byte(`{"version": 99}`), FormatJSON)
	assert.Error(t, err)

	_, err = DecodeSnapshot([]byte(`not: [valid`), FormatYAML)
	assert.Error(t, err)
}
