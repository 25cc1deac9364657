// Package filter holds the moderation word list. Matching is case-insensitive
// substring containment; words are persisted through the store and survive
// restarts.
package filter

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tbourn/go-movie-bot/internal/store"
)

// Filter scans inbound text against the persisted word set.
type Filter struct {
	mu    sync.RWMutex
	words map[string]struct{}
	st    store.Store
}

// New loads the word list from st and returns a ready filter.
func New(st store.Store) (*Filter, error) {
	f := &Filter{words: make(map[string]struct{}), st: st}
	if _, err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Match reports the first filtered word contained in text, case-insensitively.
func (f *Filter) Match(text string) (string, bool) {
	lowered := strings.ToLower(text)
	f.mu.RLock()
	defer f.mu.RUnlock()
	for w := range f.words {
		if strings.Contains(lowered, w) {
			return w, true
		}
	}
	return "", false
}

// Add inserts word into the set and persists the list. It reports false when
// the word was already present (nothing written).
func (f *Filter) Add(word string) (bool, error) {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return false, fmt.Errorf("filter: empty word")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.words[w]; ok {
		return false, nil
	}
	f.words[w] = struct{}{}
	if err := f.st.SaveWords(f.sortedLocked()); err != nil {
		delete(f.words, w)
		return false, err
	}
	return true, nil
}

// Words returns the current word list in sorted order.
func (f *Filter) Words() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sortedLocked()
}

// Reload re-reads the word list from the store, replacing the in-memory set,
// and returns the number of words loaded.
func (f *Filter) Reload() (int, error) {
	loaded, err := f.st.LoadWords()
	if err != nil {
		return 0, err
	}
	next := make(map[string]struct{}, len(loaded))
	for _, w := range loaded {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			next[w] = struct{}{}
		}
	}
	f.mu.Lock()
	f.words = next
	f.mu.Unlock()
	return len(next), nil
}

// sortedLocked returns the words sorted. Callers must hold f.mu.
func (f *Filter) sortedLocked() []string {
	out := make([]string, 0, len(f.words))
	for w := range f.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
