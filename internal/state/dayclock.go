package state

import (
	"sync"
	"time"
)

// DayClock holds the process-wide active day and fans out day changes to
// subscribed slots. Exactly one instance exists per running app; it is
// injected into slots rather than imported as a global so tests can run
// their own clocks in isolation.
type DayClock struct {
	mu   sync.Mutex
	day  string
	subs map[int]func(day string)
	next int
}

// NewDayClock returns a clock whose active day is today (UTC).
func NewDayClock() *DayClock {
	return NewDayClockAt(time.Now().UTC().Format(DayFormat))
}

// NewDayClockAt returns a clock pinned to a specific active day.
func NewDayClockAt(day string) *DayClock {
	return &DayClock{day: day, subs: make(map[int]func(string))}
}

// Day returns the current active day.
func (c *DayClock) Day() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.day
}

// Set advances the active day and synchronously notifies every subscriber
// before returning. Setting the current day is a no-op. The subscriber list
// is snapshotted before fan-out, so a callback may subscribe, unsubscribe,
// or call Set again without corrupting the iteration.
func (c *DayClock) Set(newDay string) {
	c.mu.Lock()
	if newDay == c.day {
		c.mu.Unlock()
		return
	}
	c.day = newDay
	fns := make([]func(string), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(newDay)
	}
}

// Subscribe registers fn to run on every day change and returns its
// unsubscribe function. Unsubscribing twice is harmless.
func (c *DayClock) Subscribe(fn func(day string)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}
