package gesture

import (
	"sync"

	"github.com/google/uuid"
)

// CandidateSet is the recognizer's list of subscribed gestures. It is safe
// for concurrent use; readers work on snapshots.
type CandidateSet struct {
	mu         sync.RWMutex
	candidates []Candidate
}

// NewCandidateSet creates an empty set.
func NewCandidateSet() *CandidateSet {
	return &CandidateSet{}
}

// Add registers a candidate and returns it with its ID assigned. A candidate
// with the same subscriber and name replaces the earlier entry in place.
func (s *CandidateSet) Add(c Candidate) Candidate {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Expanded = ""
	c.Distance = 0
	c.DistancePct = 0

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.candidates {
		if existing.SubscriberID == c.SubscriberID && existing.Name == c.Name {
			c.ID = existing.ID
			s.candidates[i] = c
			return c
		}
	}
	s.candidates = append(s.candidates, c)
	return c
}

// Remove deletes a candidate by its ID.
func (s *CandidateSet) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.candidates {
		if c.ID == id {
			s.candidates = append(s.candidates[:i], s.candidates[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveSubscriber deletes every candidate owned by a subscriber and returns
// how many were removed.
func (s *CandidateSet) RemoveSubscriber(subscriberID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.candidates[:0]
	removed := 0
	for _, c := range s.candidates {
		if c.SubscriberID == subscriberID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.candidates = kept
	return removed
}

// Snapshot returns a copy of the candidates in registration order.
func (s *CandidateSet) Snapshot() []Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Candidate, len(s.candidates))
	copy(out, s.candidates)
	return out
}

// Len returns the number of candidates.
func (s *CandidateSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.candidates)
}
