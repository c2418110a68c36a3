// Package weight keeps the body-weight log and its trend statistics.
package weight

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/vthunder/daybook/internal/dates"
	"github.com/vthunder/daybook/internal/ids"
	"github.com/vthunder/daybook/internal/logging"
)

var (
	ErrInvalidWeight = errors.New("weight must be a positive number")
	ErrInvalidDate   = errors.New("a date is required")
	ErrDuplicateDate = errors.New("an entry for that date already exists")
	ErrNotFound      = errors.New("weight entry not found")
)

// Entry is one weigh-in
type Entry struct {
	ID     int64      `json:"id" yaml:"id"`
	Date   dates.Date `json:"date" yaml:"date"`
	Weight float64    `json:"weight" yaml:"weight"`
}

// Log is the weight collection, kept sorted ascending by date. Not safe for
// concurrent use.
type Log struct {
	ids     *ids.Generator
	entries []Entry
}

func NewLog(gen *ids.Generator) *Log {
	if gen == nil {
		gen = ids.NewGenerator(nil)
	}
	return &Log{ids: gen, entries: []Entry{}}
}

// Load replaces the collection. Entries with a missing date, a non-positive
// weight or a repeated date are dropped with a warning. It reports how many
// were dropped.
func (l *Log) Load(entries []Entry) int {
	l.entries = make([]Entry, 0, len(entries))
	seen := map[dates.Date]bool{}
	dropped := 0
	for _, e := range entries {
		if e.Date.IsZero() || !validWeight(e.Weight) || seen[e.Date] {
			logging.Warn("weight", "Dropping invalid entry %d (%s, %v)", e.ID, e.Date, e.Weight)
			dropped++
			continue
		}
		seen[e.Date] = true
		l.ids.Observe(e.ID)
		l.entries = append(l.entries, e)
	}
	l.sort()
	return dropped
}

func (l *Log) sort() {
	sort.SliceStable(l.entries, func(i, j int) bool {
		return l.entries[i].Date.Before(l.entries[j].Date)
	})
}

func validWeight(w float64) bool {
	return w > 0 && !math.IsNaN(w) && !math.IsInf(w, 0)
}

// ParseWeight reads a user-entered weight
func ParseWeight(s string) (float64, error) {
	w, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !validWeight(w) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeight, s)
	}
	return w, nil
}

// Add records a weigh-in. At most one entry per date.
func (l *Log) Add(date dates.Date, w float64) (Entry, error) {
	if !validWeight(w) {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidWeight, w)
	}
	if date.IsZero() {
		return Entry{}, ErrInvalidDate
	}
	for _, e := range l.entries {
		if e.Date == date {
			return Entry{}, fmt.Errorf("%w: %s", ErrDuplicateDate, date)
		}
	}

	e := Entry{ID: l.ids.Next(), Date: date, Weight: w}
	l.entries = append(l.entries, e)
	l.sort()
	return e, nil
}

// Delete removes the entry with id
func (l *Log) Delete(id int64) error {
	for i, e := range l.entries {
		if e.ID == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrNotFound, id)
}

// Entries returns a copy of the log in date order
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len is the number of entries
func (l *Log) Len() int {
	return len(l.entries)
}

// Recent returns up to n entries, newest first. n <= 0 returns all of them.
func (l *Log) Recent(n int) []Entry {
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(l.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// Point is one sample of the weight series
type Point struct {
	Date   dates.Date `json:"date"`
	Weight float64    `json:"weight"`
}

// Series returns the chart points in date order
func (l *Log) Series() []Point {
	out := make([]Point, len(l.entries))
	for i, e := range l.entries {
		out[i] = Point{Date: e.Date, Weight: e.Weight}
	}
	return out
}
