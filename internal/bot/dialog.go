package bot

import (
	"sync"
	"time"
)

// State enumerates the guided-dialog positions a user can be in. Every
// command except /recommend and /broadcast is single-shot and leaves the
// user in StateIdle.
type State int

const (
	StateIdle State = iota
	StateAwaitingMediaType
	StateAwaitingGenre
	StateAwaitingBroadcast
)

// sessionKey identifies a dialog by chat and user, so two people in the same
// group can run the wizard independently.
type sessionKey struct {
	chatID int64
	userID int64
}

type session struct {
	state     State
	mediaType string
	touchedAt time.Time
}

// Dialogs tracks in-flight guided dialogs. Sessions expire lazily after the
// configured idle TTL; an expired session reads as StateIdle.
type Dialogs struct {
	mu       sync.Mutex
	sessions map[sessionKey]session
	ttl      time.Duration
	now      func() time.Time
}

// NewDialogs returns an empty dialog table with the given idle expiry.
func NewDialogs(ttl time.Duration) *Dialogs {
	return &Dialogs{
		sessions: make(map[sessionKey]session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// SetClock overrides the table's time source. Intended for tests.
func (d *Dialogs) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

// Get returns the user's current state and any media type chosen so far.
func (d *Dialogs) Get(chatID, userID int64) (State, string) {
	k := sessionKey{chatID: chatID, userID: userID}
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[k]
	if !ok {
		return StateIdle, ""
	}
	if d.now().Sub(s.touchedAt) >= d.ttl {
		delete(d.sessions, k)
		return StateIdle, ""
	}
	return s.state, s.mediaType
}

// Set moves the user to state, remembering mediaType for the genre step.
func (d *Dialogs) Set(chatID, userID int64, state State, mediaType string) {
	k := sessionKey{chatID: chatID, userID: userID}
	d.mu.Lock()
	defer d.mu.Unlock()
	if state == StateIdle {
		delete(d.sessions, k)
		return
	}
	d.sessions[k] = session{state: state, mediaType: mediaType, touchedAt: d.now()}
}

// Reset returns the user to StateIdle.
func (d *Dialogs) Reset(chatID, userID int64) {
	d.Set(chatID, userID, StateIdle, "")
}

// Active reports the number of live sessions, counting expired ones that no
// read has collected yet.
func (d *Dialogs) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}
