package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps each dataset in its own JSON file. Writes go through a
// temp file and rename so a crash never leaves a half-written list behind.
type FileStore struct {
	wordsPath string
	chatsPath string
}

// OpenFile returns a file-backed store. The files need not exist yet;
// loading a missing file yields empty data.
func OpenFile(wordsPath, chatsPath string) (*FileStore, error) {
	for _, p := range []string{wordsPath, chatsPath} {
		if p == "" {
			return nil, fmt.Errorf("store: empty file path")
		}
		if dir := filepath.Dir(p); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create dir %s: %w", dir, err)
			}
		}
	}
	return &FileStore{wordsPath: wordsPath, chatsPath: chatsPath}, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) LoadWords() ([]string, error) {
	var words []string
	if err := readJSON(s.wordsPath, &words); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return words, nil
}

func (s *FileStore) SaveWords(words []string) error {
	if words == nil {
		words = []string{}
	}
	return writeJSON(s.wordsPath, words)
}

func (s *FileStore) LoadChats() (ChatSet, error) {
	var cs ChatSet
	if err := readJSON(s.chatsPath, &cs); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ChatSet{}, nil
		}
		return ChatSet{}, err
	}
	return cs, nil
}

func (s *FileStore) SaveChats(cs ChatSet) error {
	return writeJSON(s.chatsPath, cs)
}

func readJSON(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("store: read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("store: parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("store: rename %s: %w", tmp, err)
	}
	return nil
}
