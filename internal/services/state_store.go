package services

import (
	"sync"

	"alfredoptarigan/nexus-talent/internal/models"
)

// StateStore owns the single application state. Every change replaces the
// whole value and is persisted while the lock is held, so snapshots reach the
// store in the order they were made.
type StateStore struct {
	mu        sync.Mutex
	state     models.AppState
	persister StatePersister
}

func NewStateStore(initial models.AppState, persister StatePersister) *StateStore {
	return &StateStore{state: initial, persister: persister}
}

// Snapshot returns a deep copy of the current state.
func (s *StateStore) Snapshot() models.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Update applies fn to the current state and stores its result.
func (s *StateStore) Update(fn func(models.AppState) models.AppState) models.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(s.state)
	s.state = next
	s.persist(next)
	return next
}

// TryUpdate is Update for transitions that may not apply. Nothing is stored
// or persisted when fn reports false.
func (s *StateStore) TryUpdate(fn func(models.AppState) (models.AppState, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := fn(s.state)
	if !ok {
		return false
	}
	s.state = next
	s.persist(next)
	return true
}

// Replace swaps in a whole new state, as done at startup.
func (s *StateStore) Replace(state models.AppState) {
	s.Update(func(models.AppState) models.AppState { return state })
}

// Restore swaps in a state without persisting it. Commands that only read
// the workspace use it so a snapshot they could not decode stays on disk.
func (s *StateStore) Restore(state models.AppState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *StateStore) persist(state models.AppState) {
	if s.persister != nil {
		s.persister.Save(state)
	}
}
