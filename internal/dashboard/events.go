package dashboard

import "github.com/vthunder/daybook/internal/streak"

// EventKind names the aggregate that changed
type EventKind string

const (
	EventTasks   EventKind = "tasks"
	EventWeights EventKind = "weights"
	EventStreak  EventKind = "streak"
	EventTheme   EventKind = "theme"
)

// Event is delivered to subscribers after a change has been written through
type Event struct {
	Kind   EventKind
	Streak streak.Info // set for EventStreak
	Theme  string      // set for EventTheme
}

// Subscribe registers fn for change events and returns a function that
// removes it. Events are delivered outside the dashboard lock, so fn may call
// back into the dashboard.
func (d *Dashboard) Subscribe(fn func(Event)) (cancel func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextObserver
	d.nextObserver++
	d.observers[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.observers, id)
	}
}

// observersLocked copies the subscriber list; caller holds d.mu
func (d *Dashboard) observersLocked() []func(Event) {
	out := make([]func(Event), 0, len(d.observers))
	for i := 0; i < d.nextObserver; i++ {
		if fn, ok := d.observers[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func dispatch(observers []func(Event), events []Event) {
	for _, e := range events {
		for _, fn := range observers {
			fn(e)
		}
	}
}
