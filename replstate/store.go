// Package replstate keeps what REPL-capable interpreters need between runs:
// an in-process record of the last owner and its content, and the on-disk
// memo locations each interpreter serializes its variables to.
package replstate

import (
	"sync"
)

// Entry is the persisted state of the last REPL-capable run
type Entry struct {
	Owner   string
	Content string
	PID     int
}

// Store is shared by every run of the host process. All accessors take the
// lock only for the duration of the read or write.
type Store struct {
	mu    sync.Mutex
	entry Entry
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// ReadPrevious returns the saved content if owner matches, "" otherwise
func (s *Store) ReadPrevious(owner string) string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry.Owner != owner {
		return ""
	}
	return s.entry.Content
}

// Save records content for owner, replacing any other owner's entry
func (s *Store) Save(owner, content string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry.Owner != owner {
		s.entry.PID = 0
	}
	s.entry.Owner = owner
	s.entry.Content = content
}

// Clear forgets every entry
func (s *Store) Clear() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry = Entry{}
}

// SetPID records the backing process of owner. Interpreters that replay
// state from disk never call it.
func (s *Store) SetPID(owner string, pid int) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry.Owner != owner {
		s.entry = Entry{Owner: owner}
	}
	s.entry.PID = pid
}

// PID returns the backing process of owner, 0 if none
func (s *Store) PID(owner string) int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry.Owner != owner {
		return 0
	}
	return s.entry.PID
}

// Snapshot returns a copy of the current entry
func (s *Store) Snapshot() Entry {
	if s == nil {
		return Entry{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry
}
