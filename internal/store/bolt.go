package store

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketState = []byte("state")
	keyWords    = []byte("filter_words")
	keyChats    = []byte("chat_registry")
)

// BoltStore keeps all state inside one bbolt bucket.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) a bbolt database at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bucketState)
		return e
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

func (s *BoltStore) LoadWords() ([]string, error) {
	var words []string
	err := s.getJSON(keyWords, &words)
	if err == ErrNotFound {
		return nil, nil
	}
	return words, err
}

func (s *BoltStore) SaveWords(words []string) error {
	if words == nil {
		words = []string{}
	}
	return s.putJSON(keyWords, words)
}

func (s *BoltStore) LoadChats() (ChatSet, error) {
	var cs ChatSet
	err := s.getJSON(keyChats, &cs)
	if err == ErrNotFound {
		return ChatSet{}, nil
	}
	return cs, err
}

func (s *BoltStore) SaveChats(cs ChatSet) error {
	return s.putJSON(keyChats, cs)
}

func (s *BoltStore) getJSON(key []byte, out any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketState).Get(key)
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, out)
	})
}

func (s *BoltStore) putJSON(key []byte, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketState).Put(key, b)
	})
}
