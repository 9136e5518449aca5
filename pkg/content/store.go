// Package content holds the in-memory store of items competing for
// airtime.
package content

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"staticnews/pkg/model"
)

// Store is the mutex-guarded content store shared by the pipeline
// workers. Items are mutated only through store methods and the scoring
// cycle; eviction is bounded and oldest-first, and never removes an item
// that is still live.
type Store struct {
	mu       sync.RWMutex
	items    map[string]*model.ContentItem
	capacity int
	seq      uint64
}

// NewStore creates a Store with the given capacity bound.
func NewStore(capacity int) *Store {
	return &Store{
		items:    make(map[string]*model.ContentItem),
		capacity: capacity,
	}
}

// Add inserts an item, assigning an ID when missing and the insertion
// sequence number. When the capacity bound is exceeded, the oldest
// non-live items are evicted first.
func (s *Store) Add(item *model.ContentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	s.seq++
	item.Seq = s.seq
	s.items[item.ID] = item

	if len(s.items) > s.capacity {
		s.evictLocked(len(s.items) - s.capacity)
	}
}

// Get returns the item with the given id, or nil.
func (s *Store) Get(id string) *model.ContentItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[id]
}

// Remove deletes an item.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// MarkConsumed flags an item as broadcast.
func (s *Store) MarkConsumed(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.items[id]; ok {
		item.Consumed = true
	}
}

// MarkOffAir clears the live flag once a live item has finished airing,
// making it eligible for eviction again.
func (s *Store) MarkOffAir(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.items[id]; ok {
		item.IsLive = false
	}
}

// All returns a snapshot slice of every stored item.
func (s *Store) All() []*model.ContentItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.ContentItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	return out
}

// Candidates returns the items still eligible for broadcast.
func (s *Store) Candidates() []*model.ContentItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.ContentItem, 0, len(s.items))
	for _, item := range s.items {
		if !item.Consumed {
			out = append(out, item)
		}
	}
	return out
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// EvictExpired removes consumed items and items older than the retention
// window. Live items are always kept.
func (s *Store) EvictExpired(now time.Time, retention time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-retention)
	removed := 0
	for id, item := range s.items {
		if item.IsLive {
			continue
		}
		if item.Consumed || item.PublishedAt.Before(cutoff) {
			delete(s.items, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("Content: evicted expired items", "count", removed, "remaining", len(s.items))
	}
	return removed
}

// evictLocked removes up to n items, oldest publishedAt first, skipping
// live items.
func (s *Store) evictLocked(n int) {
	candidates := make([]*model.ContentItem, 0, len(s.items))
	for _, item := range s.items {
		if item.IsLive {
			continue
		}
		candidates = append(candidates, item)
	}
	sort.Slice(candidates, func(a, b int) bool {
		if !candidates[a].PublishedAt.Equal(candidates[b].PublishedAt) {
			return candidates[a].PublishedAt.Before(candidates[b].PublishedAt)
		}
		return candidates[a].Seq < candidates[b].Seq
	})

	for i := 0; i < n && i < len(candidates); i++ {
		delete(s.items, candidates[i].ID)
	}
	if n > 0 {
		slog.Debug("Content: capacity eviction", "requested", n, "evicted", min(n, len(candidates)))
	}
}
