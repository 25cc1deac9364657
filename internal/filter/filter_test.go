package filter

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tbourn/go-movie-bot/internal/store"
)

func newFileFilter(t *testing.T) (*Filter, store.Store) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.OpenFile(filepath.Join(dir, "words.json"), filepath.Join(dir, "chats.json"))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	f, err := New(st)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f, st
}

func TestFilter_AddAndMatchCaseInsensitive(t *testing.T) {
	f, _ := newFileFilter(t)
	added, err := f.Add("Spoiler")
	if err != nil || !added {
		t.Fatalf("Add = (%v,%v), want (true,nil)", added, err)
	}
	word, ok := f.Match("this has a SPOILER in it")
	if !ok || word != "spoiler" {
		t.Fatalf("Match = (%q,%v), want (spoiler,true)", word, ok)
	}
	if _, ok := f.Match("harmless chatter"); ok {
		t.Fatalf("Match reported a hit on clean text")
	}
}

func TestFilter_AddDuplicateIsNoop(t *testing.T) {
	f, _ := newFileFilter(t)
	if _, err := f.Add("leak"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	added, err := f.Add("LEAK")
	if err != nil || added {
		t.Fatalf("duplicate Add = (%v,%v), want (false,nil)", added, err)
	}
	if got := f.Words(); !reflect.DeepEqual(got, []string{"leak"}) {
		t.Fatalf("Words = %v", got)
	}
}

func TestFilter_PersistsAcrossReload(t *testing.T) {
	f, st := newFileFilter(t)
	if _, err := f.Add("spoiler"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// A fresh filter over the same store sees the persisted word.
	f2, err := New(st)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := f2.Match("no spoilers please"); !ok {
		t.Fatalf("persisted word not visible after reload")
	}
}

func TestFilter_ReloadReplacesSet(t *testing.T) {
	f, st := newFileFilter(t)
	if _, err := f.Add("old"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := st.SaveWords([]string{"fresh"}); err != nil {
		t.Fatalf("SaveWords: %v", err)
	}
	n, err := f.Reload()
	if err != nil || n != 1 {
		t.Fatalf("Reload = (%d,%v), want (1,nil)", n, err)
	}
	if _, ok := f.Match("old news"); ok {
		t.Fatalf("stale word survived Reload")
	}
	if _, ok := f.Match("fresh news"); !ok {
		t.Fatalf("reloaded word not matched")
	}
}

func TestFilter_RejectsEmptyWord(t *testing.T) {
	f, _ := newFileFilter(t)
	if _, err := f.Add("   "); err == nil {
		t.Fatalf("Add of blank word should error")
	}
}
