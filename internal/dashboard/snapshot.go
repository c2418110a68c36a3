package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vthunder/daybook/internal/activity"
	"github.com/vthunder/daybook/internal/config"
	"github.com/vthunder/daybook/internal/streak"
	"github.com/vthunder/daybook/internal/tasks"
	"github.com/vthunder/daybook/internal/weight"
)

const snapshotVersion = 1

// Export formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Snapshot is every document of the dashboard, for export and import
type Snapshot struct {
	Version    int            `json:"version" yaml:"version"`
	ExportedAt time.Time      `json:"exportedAt" yaml:"exportedAt"`
	Tasks      []tasks.Task   `json:"tasks" yaml:"tasks"`
	Weights    []weight.Entry `json:"weightEntries" yaml:"weightEntries"`
	Streak     streak.Info    `json:"streakInfo" yaml:"streakInfo"`
	Theme      string         `json:"theme" yaml:"theme"`
}

// Snapshot captures the current state
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{
		Version:    snapshotVersion,
		ExportedAt: d.cal.Now(),
		Tasks:      d.tasks.Tasks(),
		Weights:    d.weights.Entries(),
		Streak:     d.streak,
		Theme:      d.theme,
	}
}

// Encode writes the snapshot as json or yaml
func (s Snapshot) Encode(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return json.MarshalIndent(s, "", "  ")
	case FormatYAML, "yml":
		return yaml.Marshal(s)
	default:
		return nil, fmt.Errorf("unknown export format %q (want json or yaml)", format)
	}
}

// DecodeSnapshot parses an exported snapshot
func DecodeSnapshot(data []byte, format string) (Snapshot, error) {
	var s Snapshot
	var err error
	switch strings.ToLower(format) {
	case FormatJSON, "":
		err = json.Unmarshal(data, &s)
	case FormatYAML, "yml":
		err = yaml.Unmarshal(data, &s)
	default:
		return Snapshot{}, fmt.Errorf("unknown import format %q (want json or yaml)", format)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if s.Version > snapshotVersion {
		return Snapshot{}, fmt.Errorf("snapshot version %d is newer than supported (%d)", s.Version, snapshotVersion)
	}
	return s, nil
}

// Restore replaces all state with the snapshot, then runs the same checks as
// Open and writes every document.
func (d *Dashboard) Restore(ctx context.Context, s Snapshot) error {
	d.mu.Lock()

	d.tasks.Load(s.Tasks)
	if dropped := d.weights.Load(s.Weights); dropped > 0 {
		d.record(activity.Entry{Type: activity.TypeImport, Summary: fmt.Sprintf("dropped %d invalid weight entries", dropped)})
	}
	d.streak = s.Streak
	if !d.streak.Valid() {
		d.streak = streak.Reset()
	}
	if s.Theme == config.ThemeDark || s.Theme == config.ThemeLight {
		d.theme = s.Theme
	}

	err := d.persistTasks(ctx)
	for _, persist := range []func(context.Context) error{d.persistWeights, d.persistStreak, d.persistTheme} {
		if perr := persist(ctx); err == nil {
			err = perr
		}
	}
	if err == nil {
		err = d.settle(ctx)
	}
	d.record(activity.Entry{
		Type:    activity.TypeImport,
		Summary: fmt.Sprintf("imported %d tasks and %d weigh-ins", d.tasks.Len(), d.weights.Len()),
	})
	streakNow, themeNow := d.streak, d.theme
	observers := d.observersLocked()
	d.mu.Unlock()

	dispatch(observers, []Event{
		{Kind: EventTasks},
		{Kind: EventWeights},
		{Kind: EventStreak, Streak: streakNow},
		{Kind: EventTheme, Theme: themeNow},
	})
	return err
}
