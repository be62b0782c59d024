package reminder

import (
	"context"
	"sync"
)

// InMemoryStore keeps med state in process memory for local/dev use.
type InMemoryStore struct {
	mu   sync.Mutex
	rows map[string]*MedState
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[string]*MedState)}
}

// row returns the caller's row, creating or rolling it over as needed.
// Callers must hold the lock.
func (s *InMemoryStore) row(userID, today string) *MedState {
	st, ok := s.rows[userID]
	if !ok || st.Day != today {
		st = &MedState{UserID: userID, Day: today}
		s.rows[userID] = st
	}
	return st
}

func (s *InMemoryStore) Get(_ context.Context, userID, today string) (MedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.row(userID, today), nil
}

func (s *InMemoryStore) MarkDone(_ context.Context, userID, today string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.row(userID, today).Done = true
	return nil
}

func (s *InMemoryStore) ClaimSlot(_ context.Context, userID, today, slot string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.row(userID, today)
	if st.Done || st.LastSlot == slot {
		return false, nil
	}
	st.LastSlot = slot
	return true, nil
}

func (s *InMemoryStore) Close() error { return nil }
