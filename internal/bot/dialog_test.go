package bot

import (
	"testing"
	"time"
)

func TestDialogs_SetGetReset(t *testing.T) {
	d := NewDialogs(10 * time.Minute)
	if st, _ := d.Get(1, 2); st != StateIdle {
		t.Fatalf("fresh table state = %v, want Idle", st)
	}
	d.Set(1, 2, StateAwaitingGenre, "movie")
	st, mt := d.Get(1, 2)
	if st != StateAwaitingGenre || mt != "movie" {
		t.Fatalf("Get = (%v,%q)", st, mt)
	}
	d.Reset(1, 2)
	if st, _ := d.Get(1, 2); st != StateIdle {
		t.Fatalf("state after Reset = %v", st)
	}
	if d.Active() != 0 {
		t.Fatalf("Active = %d after Reset", d.Active())
	}
}

func TestDialogs_SessionsAreIndependentPerChatAndUser(t *testing.T) {
	d := NewDialogs(10 * time.Minute)
	d.Set(1, 2, StateAwaitingMediaType, "")
	if st, _ := d.Get(1, 3); st != StateIdle {
		t.Fatalf("other user's state = %v, want Idle", st)
	}
	if st, _ := d.Get(9, 2); st != StateIdle {
		t.Fatalf("same user in another chat = %v, want Idle", st)
	}
}

func TestDialogs_ExpireLazily(t *testing.T) {
	now := time.Unix(0, 0)
	d := NewDialogs(10 * time.Minute)
	d.SetClock(func() time.Time { return now })

	d.Set(1, 2, StateAwaitingMediaType, "")
	now = now.Add(10*time.Minute - time.Second)
	if st, _ := d.Get(1, 2); st != StateAwaitingMediaType {
		t.Fatalf("session expired early: %v", st)
	}
	now = now.Add(2 * time.Second)
	if st, _ := d.Get(1, 2); st != StateIdle {
		t.Fatalf("session survived past TTL: %v", st)
	}
	if d.Active() != 0 {
		t.Fatalf("expired session not collected, Active = %d", d.Active())
	}
}
