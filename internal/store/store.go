// Package store persists the bot's small pieces of durable state: the
// moderation word list and the registry of known group and channel ids.
// Two backends exist, a flat-file JSON store and a bbolt store.
package store

import "errors"

// ChatSet holds the ids the broadcast fan-out targets, split by chat kind.
type ChatSet struct {
	Groups   []int64 `json:"groups"`
	Channels []int64 `json:"channels"`
}

// Store abstracts persistent storage for moderation words and the chat
// registry. Implementations are safe for use from a single goroutine; the
// registry serializes access on top.
type Store interface {
	Close() error

	LoadWords() ([]string, error)
	SaveWords(words []string) error

	LoadChats() (ChatSet, error)
	SaveChats(cs ChatSet) error
}

// ErrNotFound is returned by backends when a record does not exist yet.
var ErrNotFound = errors.New("store: not found")
