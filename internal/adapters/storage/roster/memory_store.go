package roster

import (
	"context"
	"fmt"
	"sync"

	domain "mergington/internal/domain/activity"
)

// MemoryStore keeps the normalized activity list in process memory.
// Callers only ever receive copies; the live slices never leave the store.
type MemoryStore struct {
	mu         sync.Mutex
	activities []domain.Activity
	index      map[string]int
}

// NewMemoryStore normalizes records and takes ownership of the result.
// PRE: none
// POST: every activity has a non-nil roster that shares no memory with records
func NewMemoryStore(records []domain.Record) *MemoryStore {
	activities := domain.Normalize(records)
	index := make(map[string]int, len(activities))
	for i, a := range activities {
		index[a.ID] = i
	}
	return &MemoryStore{activities: activities, index: index}
}

// List returns every activity in source order.
// POST: returned activities are deep copies
func (s *MemoryStore) List(_ context.Context) ([]domain.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Activity, len(s.activities))
	for i, a := range s.activities {
		out[i] = a.Clone()
	}
	return out, nil
}

// GetByID returns a copy of one activity.
// PRE: id is non-empty
// POST: Returns the activity or ErrActivityNotFound
func (s *MemoryStore) GetByID(_ context.Context, id string) (domain.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return domain.Activity{}, fmt.Errorf("%w: %q", domain.ErrActivityNotFound, id)
	}
	return s.activities[i].Clone(), nil
}

// Signup appends email to the roster of activityID unless it is already there.
// PRE: email and activityID are non-empty and activityID is in the store
// POST: added reports whether the roster grew; no other activity is touched
// INVARIANT: a roster never holds the same email twice
func (s *MemoryStore) Signup(_ context.Context, activityID, email string) (bool, error) {
	if email == "" {
		return false, domain.ErrEmailRequired
	}
	if activityID == "" {
		return false, domain.ErrActivityRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[activityID]
	if !ok {
		return false, fmt.Errorf("%w: %q", domain.ErrActivityNotFound, activityID)
	}
	act := &s.activities[i]
	if act.HasParticipant(email) {
		return false, nil
	}
	act.Participants = append(act.Participants, email)
	return true, nil
}
