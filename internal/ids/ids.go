// Package ids hands out creation-timestamp identifiers.
package ids

import (
	"sync"

	"github.com/vthunder/daybook/internal/dates"
)

// Generator returns millisecond timestamps that never repeat within a process,
// even when called within the same millisecond.
type Generator struct {
	mu    sync.Mutex
	clock dates.Clock
	last  int64
}

func NewGenerator(clock dates.Clock) *Generator {
	if clock == nil {
		clock = dates.RealClock{}
	}
	return &Generator{clock: clock}
}

// Next returns the next identifier.
func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.clock.Now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe makes sure future identifiers sort after id (used after loading
// persisted documents so ids are never reused).
func (g *Generator) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}
