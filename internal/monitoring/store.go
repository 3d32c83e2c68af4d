package monitoring

import (
	"sync/atomic"
)

// Store holds the single current Snapshot. Readers always observe a
// complete snapshot: either the previous one or its replacement.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns a store seeded with initial.
func NewStore(initial Snapshot) *Store {
	s := &Store{}
	s.current.Store(&initial)
	return s
}

// Get returns the current snapshot.
func (s *Store) Get() Snapshot {
	return *s.current.Load()
}

// Replace swaps in snap. Concurrent writers are last-write-wins.
func (s *Store) Replace(snap Snapshot) {
	s.current.Store(&snap)
}
