package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// StoreKey is the single well-known name the current context is stored
// under.
const StoreKey = "netsuite_session"

// Store holds the most recent session context in process-wide key-value
// storage and mirrors it to disk when a path is configured. Every Put
// overwrites the record wholesale; partial merges never happen.
type Store struct {
	mu      sync.RWMutex
	path    string
	records map[string]Context
}

// NewStore creates a store persisting to path ("" keeps it memory-only)
// and loads any previously persisted record.
func NewStore(path string) *Store {
	s := &Store{path: path, records: make(map[string]Context)}
	s.load()
	return s
}

// Put replaces the stored context and persists it.
func (s *Store) Put(c Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[StoreKey] = c
	return s.persist()
}

// Get returns the current context and whether one has been stored.
func (s *Store) Get() (Context, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.records[StoreKey]
	return c, ok
}

// Current returns the stored context, or a zero (unauthenticated) context
// when nothing has been extracted yet.
func (s *Store) Current() Context {
	c, _ := s.Get()
	return c
}

func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

func (s *Store) load() {
	if s.path == "" {
		return
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var records map[string]Context
	if err := json.Unmarshal(data, &records); err != nil {
		return
	}
	if records != nil {
		s.records = records
	}
}
