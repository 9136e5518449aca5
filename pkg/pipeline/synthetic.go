package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"staticnews/pkg/model"
)

// syntheticItem fills slots that have no competing content: weather,
// banter, and the empty-rundown case. Synthetic items never enter the
// content store.
func syntheticItem(t model.SubSegmentType, now time.Time) *model.ContentItem {
	item := &model.ContentItem{
		ID:          "synthetic-" + uuid.NewString(),
		SourceKind:  model.SourceOriginal,
		PublishedAt: now,
	}

	switch t {
	case model.SubSegWeather:
		item.Title = "The Forecast"
		item.Summary = fmt.Sprintf("Conditions as of %s: weather is occurring. Expect more of it, possibly elsewhere.", now.Format("3:04 PM"))
		item.Category = "general"
	case model.SubSegBanter:
		item.Title = "Desk Chatter"
		item.Summary = "The anchors fill the air between stories. Nobody is sure who approved this."
		item.Category = "human_interest"
	default:
		item.Title = "A Quiet Moment On The Wire"
		item.Summary = "No stories cleared the desk this cycle. The broadcast continues regardless."
		item.Category = "general"
	}
	return item
}

// headlinesDigest condenses a slate into one readable rundown item.
func headlinesDigest(slate []*model.ContentItem, now time.Time) *model.ContentItem {
	titles := make([]string, 0, len(slate))
	for _, it := range slate {
		titles = append(titles, it.Title)
	}
	return &model.ContentItem{
		ID:          "headlines-" + uuid.NewString(),
		Title:       "Top Of The Hour",
		Summary:     "In tonight's rundown: " + strings.Join(titles, ". ") + ".",
		Category:    slate[0].Category,
		SourceKind:  model.SourceOriginal,
		PublishedAt: now,
	}
}
