package conversation

import (
	"sync"
	"time"
)

// Store holds one conversation state per user.
//
// Get, Set and Clear are individually safe for concurrent use. A handler
// that reads, decides and writes must hold Lock for that user so the whole
// transition is atomic with respect to other events of the same user.
// Different users never contend on the per-user lock.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry
	now     func() time.Time
}

type entry struct {
	mu    sync.Mutex // serializes transitions of one user
	refs  int        // holders and waiters of mu, guarded by Store.mu
	state State      // guarded by Store.mu
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[int64]*entry),
		now:     time.Now,
	}
}

// Lock acquires the per-user transition lock and returns its release func.
// Entries held or waited on are never swept.
func (s *Store) Lock(userID int64) (unlock func()) {
	s.mu.Lock()
	e := s.entryLocked(userID)
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			s.mu.Lock()
			e.refs--
			s.mu.Unlock()
		})
	}
}

// Get returns the user's state, or an idle state if none is stored.
func (s *Store) Get(userID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		return State{Stage: StageIdle}
	}
	return e.state.clone()
}

// Set stores the user's state and stamps UpdatedAt.
func (s *Store) Set(userID int64, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st = st.clone()
	st.UpdatedAt = s.now()
	s.entryLocked(userID).state = st
}

// Clear resets the user to an idle state with no draft.
func (s *Store) Clear(userID int64) {
	s.Set(userID, State{Stage: StageIdle})
}

// Sweep drops states untouched for longer than maxIdle, abandoned drafts
// included, and returns how many were removed. A dropped user reads as idle.
func (s *Store) Sweep(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	removed := 0
	for id, e := range s.entries {
		if e.refs > 0 || e.state.UpdatedAt.After(cutoff) {
			continue
		}
		delete(s.entries, id)
		removed++
	}
	return removed
}

// Len returns the number of stored states.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) entryLocked(userID int64) *entry {
	e, ok := s.entries[userID]
	if !ok {
		e = &entry{state: State{Stage: StageIdle, UpdatedAt: s.now()}}
		s.entries[userID] = e
	}
	return e
}
