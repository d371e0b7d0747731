// Package runstore keeps reports of recent review cycles in memory.
// Reports are informational only: they are lost on restart and never
// consulted when deciding what to review.
package runstore

import (
	"sync"
	"time"
)

// Outcome is what happened to one item in a cycle
type Outcome string

const (
	OutcomeSkipped   Outcome = "skipped"
	OutcomeExhausted Outcome = "exhausted"
	OutcomePublished Outcome = "published"
	OutcomeFailed    Outcome = "failed"
)

// ItemResult records the handling of one item.
type ItemResult struct {
	Number  int     `json:"number"`
	Outcome Outcome `json:"outcome"`
	// Reason is the filter reason for skipped items.
	Reason string `json:"reason,omitempty"`
	// StateBefore and StateAfter are marker states (S0..S3).
	StateBefore string    `json:"state_before,omitempty"`
	StateAfter  string    `json:"state_after,omitempty"`
	CommentID   int64     `json:"comment_id,omitempty"`
	Error       string    `json:"error,omitempty"`
	At          time.Time `json:"at"`
}

// Cycle is the report of one pass over the candidate list.
type Cycle struct {
	ID         string       `json:"id"`
	Repo       string       `json:"repo"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Candidates int          `json:"candidates"`
	Error      string       `json:"error,omitempty"`
	Items      []ItemResult `json:"items"`
}

// Count returns how many items ended with outcome.
func (c *Cycle) Count(outcome Outcome) int {
	n := 0
	for _, it := range c.Items {
		if it.Outcome == outcome {
			n++
		}
	}
	return n
}

func (c *Cycle) clone() *Cycle {
	cp := *c
	cp.Items = append([]ItemResult(nil), c.Items...)
	return &cp
}

// DefaultLimit is the number of cycles kept by NewStore(0).
const DefaultLimit = 50

// Store is a bounded ring of finished cycles
type Store struct {
	mu     sync.RWMutex
	limit  int
	cycles []*Cycle // oldest first
}

// NewStore creates a store keeping at most limit cycles.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{limit: limit}
}

// Add stores a copy of a finished cycle, evicting the oldest when full.
func (s *Store) Add(c *Cycle) {
	if c == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles = append(s.cycles, c.clone())
	if over := len(s.cycles) - s.limit; over > 0 {
		s.cycles = append([]*Cycle(nil), s.cycles[over:]...)
	}
}

// Get returns the cycle with the given ID.
func (s *Store) Get(id string) (*Cycle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cycles {
		if c.ID == id {
			return c.clone(), true
		}
	}
	return nil, false
}

// List returns the stored cycles, newest first.
func (s *Store) List() []*Cycle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Cycle, 0, len(s.cycles))
	for i := len(s.cycles) - 1; i >= 0; i-- {
		out = append(out, s.cycles[i].clone())
	}
	return out
}

// LastResult returns the most recent result recorded for an item.
func (s *Store) LastResult(number int) (ItemResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.cycles) - 1; i >= 0; i-- {
		items := s.cycles[i].Items
		for j := len(items) - 1; j >= 0; j-- {
			if items[j].Number == number {
				return items[j], true
			}
		}
	}
	return ItemResult{}, false
}
