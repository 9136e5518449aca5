package scorer

import (
	"sort"

	"staticnews/pkg/config"
	"staticnews/pkg/model"
)

// Rank orders items by stored priority score descending. Ties break by
// earliest PublishedAt, then by insertion sequence, so the order is a
// stable total order and re-sorting is idempotent.
func Rank(items []*model.ContentItem) []*model.ContentItem {
	ranked := make([]*model.ContentItem, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(a, b int) bool {
		return Less(ranked[a], ranked[b])
	})
	return ranked
}

// Less reports whether a should air before b.
func Less(a, b *model.ContentItem) bool {
	if a.PriorityScore != b.PriorityScore {
		return a.PriorityScore > b.PriorityScore
	}
	if !a.PublishedAt.Equal(b.PublishedAt) {
		return a.PublishedAt.Before(b.PublishedAt)
	}
	return a.Seq < b.Seq
}

// Slate selects the broadcast slate for a profile in two passes. The quota
// pass walks the profile's category preference table, taking the
// highest-ranked unused item of each requested category. The fill pass
// tops the slate up with the highest-ranked leftovers regardless of
// category. The result never contains duplicates and never exceeds size.
func Slate(items []*model.ContentItem, profile *config.ProfileConfig, size int) []*model.ContentItem {
	if size <= 0 || len(items) == 0 {
		return nil
	}

	ranked := Rank(items)
	used := make(map[string]bool, size)
	slate := make([]*model.ContentItem, 0, size)

	take := func(item *model.ContentItem) {
		used[item.ID] = true
		slate = append(slate, item)
	}

	// Quota pass.
	if profile != nil {
		for _, quota := range profile.Prefer {
			for n := 0; n < quota.Count && len(slate) < size; n++ {
				found := false
				for _, item := range ranked {
					if used[item.ID] || item.Category != quota.Category {
						continue
					}
					take(item)
					found = true
					break
				}
				if !found {
					break // no more items of this category
				}
			}
			if len(slate) >= size {
				break
			}
		}
	}

	// Fill pass.
	for _, item := range ranked {
		if len(slate) >= size {
			break
		}
		if used[item.ID] {
			continue
		}
		take(item)
	}

	return slate
}
