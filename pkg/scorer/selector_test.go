package scorer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staticnews/pkg/config"
	"staticnews/pkg/model"
)

func item(id, category string, score float64) *model.ContentItem {
	return &model.ContentItem{ID: id, Category: category, PriorityScore: score}
}

func TestRankOrderAndTieBreaks(t *testing.T) {
	early := time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	a := &model.ContentItem{ID: "a", PriorityScore: 50, PublishedAt: late, Seq: 1}
	b := &model.ContentItem{ID: "b", PriorityScore: 50, PublishedAt: early, Seq: 2}
	c := &model.ContentItem{ID: "c", PriorityScore: 50, PublishedAt: early, Seq: 3}
	d := &model.ContentItem{ID: "d", PriorityScore: 90, PublishedAt: late, Seq: 4}

	ranked := Rank([]*model.ContentItem{a, b, c, d})
	ids := []string{ranked[0].ID, ranked[1].ID, ranked[2].ID, ranked[3].ID}
	assert.Equal(t, []string{"d", "b", "c", "a"}, ids)

	// Re-ranking an already ranked slice changes nothing.
	again := Rank(ranked)
	assert.Equal(t, ranked, again)
}

func TestSlateQuotaThenFill(t *testing.T) {
	profile := &config.ProfileConfig{
		Name: "test",
		Prefer: []config.CategoryQuota{
			{Category: "breaking", Count: 1},
			{Category: "weird", Count: 2},
		},
	}

	items := []*model.ContentItem{
		item("b1", "breaking", 10),
		item("b2", "breaking", 90),
		item("w1", "weird", 80),
		item("w2", "weird", 5),
		item("o1", "opinion", 95),
		item("o2", "opinion", 85),
	}

	slate := Slate(items, profile, 4)
	require.Len(t, slate, 4)

	// Quota pass: best breaking, both weird. Fill pass: best leftover.
	assert.Equal(t, "b2", slate[0].ID)
	assert.Equal(t, "w1", slate[1].ID)
	assert.Equal(t, "w2", slate[2].ID)
	assert.Equal(t, "o1", slate[3].ID)
}

func TestSlateNoDuplicatesAndBounded(t *testing.T) {
	profile := &config.ProfileConfig{
		Prefer: []config.CategoryQuota{{Category: "weird", Count: 5}},
	}

	var items []*model.ContentItem
	for i := 0; i < 3; i++ {
		items = append(items, item(fmt.Sprintf("w%d", i), "weird", float64(i)))
	}

	slate := Slate(items, profile, 10)
	require.Len(t, slate, 3, "slate never exceeds available items")

	seen := map[string]bool{}
	for _, it := range slate {
		assert.False(t, seen[it.ID], "duplicate %s", it.ID)
		seen[it.ID] = true
	}
}

func TestSlateNilProfile(t *testing.T) {
	items := []*model.ContentItem{
		item("a", "opinion", 1),
		item("b", "opinion", 2),
	}
	slate := Slate(items, nil, 1)
	require.Len(t, slate, 1)
	assert.Equal(t, "b", slate[0].ID)
}

func TestSlateEmptyInput(t *testing.T) {
	assert.Nil(t, Slate(nil, nil, 5))
	assert.Nil(t, Slate([]*model.ContentItem{item("a", "x", 1)}, nil, 0))
}
