package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staticnews/pkg/model"
)

func newItem(id string, publishedAt time.Time) *model.ContentItem {
	return &model.ContentItem{
		ID:          id,
		Title:       id,
		Category:    "general",
		PublishedAt: publishedAt,
	}
}

func TestAddAssignsIDAndSequence(t *testing.T) {
	s := NewStore(10)
	item := newItem("", time.Now())
	s.Add(item)

	require.NotEmpty(t, item.ID)
	assert.Equal(t, uint64(1), item.Seq)
	assert.Same(t, item, s.Get(item.ID))
}

func TestCapacityEvictsOldestFirst(t *testing.T) {
	s := NewStore(3)
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c", "d"} {
		s.Add(newItem(id, base.Add(time.Duration(i)*time.Minute)))
	}

	assert.Equal(t, 3, s.Len())
	assert.Nil(t, s.Get("a"), "oldest item should be evicted")
	assert.NotNil(t, s.Get("d"))
}

func TestCapacityEvictionSkipsLiveItems(t *testing.T) {
	s := NewStore(2)
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	live := newItem("live", base)
	live.IsLive = true
	s.Add(live)
	s.Add(newItem("b", base.Add(time.Minute)))
	s.Add(newItem("c", base.Add(2*time.Minute)))

	assert.NotNil(t, s.Get("live"), "live items survive capacity pressure")
	assert.Nil(t, s.Get("b"), "eviction falls through to the oldest non-live item")
	assert.NotNil(t, s.Get("c"))
}

func TestCandidatesExcludesConsumed(t *testing.T) {
	s := NewStore(10)
	s.Add(newItem("fresh", time.Now()))
	s.Add(newItem("aired", time.Now()))
	s.MarkConsumed("aired")

	cands := s.Candidates()
	require.Len(t, cands, 1)
	assert.Equal(t, "fresh", cands[0].ID)
	assert.Equal(t, 2, s.Len(), "consumed items stay stored until eviction")
}

func TestEvictExpired(t *testing.T) {
	s := NewStore(10)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	s.Add(newItem("stale", now.Add(-48*time.Hour)))
	s.Add(newItem("fresh", now.Add(-time.Hour)))
	s.Add(newItem("aired", now))
	s.MarkConsumed("aired")

	liveStale := newItem("live-stale", now.Add(-72*time.Hour))
	liveStale.IsLive = true
	s.Add(liveStale)

	removed := s.EvictExpired(now, 24*time.Hour)

	assert.Equal(t, 2, removed)
	assert.Nil(t, s.Get("stale"))
	assert.Nil(t, s.Get("aired"))
	assert.NotNil(t, s.Get("fresh"))
	assert.NotNil(t, s.Get("live-stale"), "live items are never expired")
}

func TestMarkOffAirMakesItemEvictable(t *testing.T) {
	s := NewStore(10)
	now := time.Now()

	item := newItem("live", now.Add(-48*time.Hour))
	item.IsLive = true
	s.Add(item)

	assert.Equal(t, 0, s.EvictExpired(now, 24*time.Hour))
	s.MarkOffAir("live")
	assert.Equal(t, 1, s.EvictExpired(now, 24*time.Hour))
}
