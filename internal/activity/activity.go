// Package activity keeps an append-only JSONL journal of dashboard changes.
package activity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vthunder/daybook/internal/dates"
)

// Type identifies what kind of change this is
type Type string

const (
	TypeTaskAdded      Type = "task_added"
	TypeTaskCompleted  Type = "task_completed"
	TypeTaskReopened   Type = "task_reopened"
	TypeTaskUpdated    Type = "task_updated"
	TypeTaskDeleted    Type = "task_deleted"
	TypeSubtask        Type = "subtask"         // subtask added, edited, toggled or removed
	TypeHistoryCleared Type = "history_cleared" // completed one-off tasks purged
	TypeRecurrence     Type = "recurrence"      // startup scan rolled tasks forward
	TypeStreak         Type = "streak"          // streak count changed
	TypeWeight         Type = "weight"          // weigh-in added or removed
	TypeTheme          Type = "theme"
	TypeImport         Type = "import"
	TypeError          Type = "error"
)

// Entry is a single journal line
type Entry struct {
	Timestamp time.Time      `json:"ts"`
	Type      Type           `json:"type"`
	Summary   string         `json:"summary"`
	TaskID    int64          `json:"task_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Log is the activity journal
type Log struct {
	path  string
	clock dates.Clock
	mu    sync.Mutex
}

// New creates a journal at <statePath>/activity.jsonl
func New(statePath string, clock dates.Clock) *Log {
	if clock == nil {
		clock = dates.RealClock{}
	}
	return &Log{
		path:  filepath.Join(statePath, "activity.jsonl"),
		clock: clock,
	}
}

// Path is the journal file
func (l *Log) Path() string {
	return l.path
}

// Log appends an entry
func (l *Log) Log(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.clock.Now()
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// LogStreak records a streak transition
func (l *Log) LogStreak(from, to int) error {
	return l.Log(Entry{
		Type:    TypeStreak,
		Summary: "streak changed",
		Data: map[string]any{
			"from": from,
			"to":   to,
		},
	})
}

// LogError records a failure
func (l *Log) LogError(summary string, err error, data map[string]any) error {
	if data == nil {
		data = make(map[string]any)
	}
	data["error"] = err.Error()
	return l.Log(Entry{
		Type:    TypeError,
		Summary: summary,
		Data:    data,
	})
}

// Recent returns the last n entries, oldest first
func (l *Log) Recent(n int) ([]Entry, error) {
	entries, err := l.readAll()
	if err != nil {
		return nil, err
	}
	if n <= 0 || n >= len(entries) {
		return entries, nil
	}
	return entries[len(entries)-n:], nil
}

// On returns entries whose timestamp falls on day in loc
func (l *Log) On(day dates.Date, loc *time.Location) ([]Entry, error) {
	entries, err := l.readAll()
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	var result []Entry
	for _, e := range entries {
		if dates.Of(e.Timestamp, loc) == day {
			result = append(result, e)
		}
	}
	return result, nil
}

// ByType returns up to limit entries of type t, newest first (limit <= 0 for all)
func (l *Log) ByType(t Type, limit int) ([]Entry, error) {
	entries, err := l.readAll()
	if err != nil {
		return nil, err
	}
	var result []Entry
	for i := len(entries) - 1; i >= 0 && (limit <= 0 || len(result) < limit); i-- {
		if entries[i].Type == t {
			result = append(result, entries[i])
		}
	}
	return result, nil
}

// Search matches query against summaries and data, newest first
func (l *Log) Search(query string, limit int) ([]Entry, error) {
	entries, err := l.readAll()
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var result []Entry
	for i := len(entries) - 1; i >= 0 && (limit <= 0 || len(result) < limit); i-- {
		e := entries[i]
		if strings.Contains(strings.ToLower(e.Summary), query) {
			result = append(result, e)
			continue
		}
		if e.Data != nil {
			dataJSON, _ := json.Marshal(e.Data)
			if strings.Contains(strings.ToLower(string(dataJSON)), query) {
				result = append(result, e)
			}
		}
	}
	return result, nil
}

func (l *Log) readAll() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue // skip malformed entries
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
