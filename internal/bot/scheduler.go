package bot

import (
	"sync"
	"time"
)

// Scheduler runs delayed one-shot tasks on independent timers. Tasks are
// fire-and-forget but individually cancellable, and Stop drains everything
// that has not fired yet so shutdown does not leak timers.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[int64]*time.Timer
	nextID  int64
	stopped bool
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[int64]*time.Timer)}
}

// After schedules fn to run once after d and returns a handle usable with
// Cancel. After a Stop the task is dropped and 0 is returned.
func (s *Scheduler) After(d time.Duration, fn func()) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0
	}
	s.nextID++
	id := s.nextID
	s.timers[id] = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		fn()
	})
	return id
}

// Cancel stops a pending task. It reports false when the task already fired,
// was cancelled before, or never existed.
func (s *Scheduler) Cancel(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[id]
	if !ok {
		return false
	}
	delete(s.timers, id)
	return t.Stop()
}

// Pending reports how many tasks have not fired yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending task and rejects new ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
