package store

import (
	"sync"
	"time"

	"podcast-insights-go/internal/types"
)

// SavedInsight is one captured run kept for review and export.
type SavedInsight struct {
	types.InsightResult
	CapturedAt time.Time `json:"captured_at"`
}

// RecentStore is a bounded, in-memory list of the most recent insights. Fixed
// capacity, oldest evicted first. Owned by the HTTP layer, not the pipeline.
type RecentStore struct {
	mu       sync.Mutex
	capacity int
	items    []SavedInsight
}

func NewRecentStore(capacity int) *RecentStore {
	if capacity <= 0 {
		capacity = 50
	}
	return &RecentStore{capacity: capacity}
}

// Add appends an insight, evicting the oldest entry at capacity.
func (s *RecentStore) Add(result types.InsightResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == s.capacity {
		s.items = s.items[1:]
	}
	s.items = append(s.items, SavedInsight{InsightResult: result, CapturedAt: time.Now().UTC()})
}

// Recent returns the stored insights, newest first.
func (s *RecentStore) Recent() []SavedInsight {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SavedInsight, len(s.items))
	for i, item := range s.items {
		out[len(s.items)-1-i] = item
	}
	return out
}

func (s *RecentStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
