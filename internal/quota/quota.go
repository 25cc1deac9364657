// Package quota enforces the shared daily ceiling on upstream metadata
// requests. All chats draw from one counter, which resets when the calendar
// day changes in the guard's location.
package quota

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time view of quota consumption, as reported by
// the /stats command.
type Snapshot struct {
	Used      int
	Limit     int
	Remaining int
	Day       string // YYYY-MM-DD the counter belongs to
}

// Guard tracks upstream request consumption against a daily limit.
type Guard struct {
	mu    sync.Mutex
	limit int
	used  int
	day   string
	now   func() time.Time
}

// NewGuard returns a guard allowing limit requests per calendar day.
func NewGuard(limit int) *Guard {
	return &Guard{limit: limit, now: time.Now}
}

// SetClock overrides the guard's time source. Intended for tests.
func (g *Guard) SetClock(now func() time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = now
}

// TryConsume atomically claims one request slot. It reports false when
// today's budget is exhausted. The day rollover check and the increment
// happen under one lock acquisition, so concurrent callers can never
// overshoot the limit.
func (g *Guard) TryConsume() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollLocked()
	if g.used >= g.limit {
		return false
	}
	g.used++
	return true
}

// Snapshot returns current consumption without claiming a slot.
func (g *Guard) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollLocked()
	return Snapshot{
		Used:      g.used,
		Limit:     g.limit,
		Remaining: g.limit - g.used,
		Day:       g.day,
	}
}

// rollLocked resets the counter when the calendar day has changed.
// Callers must hold g.mu.
func (g *Guard) rollLocked() {
	today := g.now().Format("2006-01-02")
	if g.day != today {
		g.day = today
		g.used = 0
	}
}
