// Package registry tracks every chat the bot has been seen in, split into
// groups, channels and individual users, and fans operator broadcasts out to
// all of them. Group and channel ids are persisted; user activity is
// in-memory only.
package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-movie-bot/internal/store"
)

// Sender is the one transport primitive a broadcast needs.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Report summarizes one broadcast run.
type Report struct {
	Recipients int
	Delivered  int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Registry is the chat ledger and broadcast fan-out.
type Registry struct {
	mu         sync.Mutex
	st         store.Store
	groups     map[int64]struct{}
	channels   map[int64]struct{}
	users      map[int64]time.Time
	lastReport *Report
	now        func() time.Time
}

// New loads the persisted chat sets from st.
func New(st store.Store) (*Registry, error) {
	cs, err := st.LoadChats()
	if err != nil {
		return nil, err
	}
	r := &Registry{
		st:       st,
		groups:   make(map[int64]struct{}, len(cs.Groups)),
		channels: make(map[int64]struct{}, len(cs.Channels)),
		users:    make(map[int64]time.Time),
		now:      time.Now,
	}
	for _, id := range cs.Groups {
		r.groups[id] = struct{}{}
	}
	for _, id := range cs.Channels {
		r.channels[id] = struct{}{}
	}
	return r, nil
}

// SetClock overrides the registry's time source. Intended for tests.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// ObserveChat records a group or channel the bot can see. Re-observing a
// known id is a no-op; a new id is appended and both sets are persisted.
func (r *Registry) ObserveChat(chatID int64, chatType string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var set map[int64]struct{}
	switch chatType {
	case "group", "supergroup":
		set = r.groups
	case "channel":
		set = r.channels
	default:
		return false, nil
	}
	if _, known := set[chatID]; known {
		return false, nil
	}
	set[chatID] = struct{}{}
	if err := r.st.SaveChats(r.chatSetLocked()); err != nil {
		delete(set, chatID)
		return false, err
	}
	return true, nil
}

// Touch records activity from a user, making them a broadcast recipient.
func (r *Registry) Touch(userID int64) {
	if userID == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID] = r.now()
}

// Counts reports the current ledger sizes for the /stats command.
func (r *Registry) Counts() (groups, channels, users int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.groups), len(r.channels), len(r.users)
}

// Broadcast delivers text to every known user, group and channel. Each
// recipient is attempted independently; failures are counted, logged and
// never abort the run. The aggregate report is retained for
// /broadcast_status.
func (r *Registry) Broadcast(ctx context.Context, s Sender, text string) Report {
	r.mu.Lock()
	targets := make([]int64, 0, len(r.users)+len(r.groups)+len(r.channels))
	for id := range r.users {
		targets = append(targets, id)
	}
	for id := range r.groups {
		targets = append(targets, id)
	}
	for id := range r.channels {
		targets = append(targets, id)
	}
	started := r.now()
	r.mu.Unlock()

	// Stable order keeps partial-failure logs comparable between runs.
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })

	rep := Report{Recipients: len(targets), StartedAt: started}
	for _, id := range targets {
		if err := s.Send(ctx, id, text); err != nil {
			rep.Failed++
			log.Warn().Err(err).Int64("chat_id", id).Msg("broadcast delivery failed")
			continue
		}
		rep.Delivered++
	}

	r.mu.Lock()
	rep.FinishedAt = r.now()
	r.lastReport = &rep
	r.mu.Unlock()
	return rep
}

// LastReport returns the most recent broadcast report, if any run happened.
func (r *Registry) LastReport() (Report, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastReport == nil {
		return Report{}, false
	}
	return *r.lastReport, true
}

// chatSetLocked snapshots both id sets in sorted order. Callers must hold r.mu.
func (r *Registry) chatSetLocked() store.ChatSet {
	cs := store.ChatSet{
		Groups:   make([]int64, 0, len(r.groups)),
		Channels: make([]int64, 0, len(r.channels)),
	}
	for id := range r.groups {
		cs.Groups = append(cs.Groups, id)
	}
	for id := range r.channels {
		cs.Channels = append(cs.Channels, id)
	}
	sort.Slice(cs.Groups, func(i, j int) bool { return cs.Groups[i] < cs.Groups[j] })
	sort.Slice(cs.Channels, func(i, j int) bool { return cs.Channels[i] < cs.Channels[j] })
	return cs
}
