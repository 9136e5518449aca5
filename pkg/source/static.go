package source

import (
	"context"
	"sync"
	"time"

	"staticnews/pkg/model"
)

// evergreen is the built-in wire. It keeps the desk stocked when every
// external feed is down.
var evergreen = []struct {
	title    string
	summary  string
	category string
	charge   float64
}{
	{"Local Man Still Waiting", "Area resident confirms he is, as of press time, still waiting.", "human_interest", 0.1},
	{"Pigeons Suspected In Municipal Wi-Fi Outage", "City engineers decline to rule out the pigeons.", "weird", 0.4},
	{"Markets React To Something", "Analysts agree the numbers went in a direction today.", "general", 0.15},
	{"Opinion: We Should All Calm Down", "A columnist argues, at length, for calm.", "opinion", 0.2},
	{"The Filing Cabinet Nobody Will Open", "Records request reveals a cabinet. What is inside remains sealed.", "investigative", 0.3},
	{"Weather Continues", "Forecasters project more weather through the weekend.", "general", 0.05},
	{"Dog Elected To Minor Office", "Turnout was described as enthusiastic.", "weird", 0.35},
	{"Bridge Still Standing, Officials Confirm", "A routine inspection finds the bridge where it was left.", "general", 0.1},
}

// StaticWire is the last-resort source. It cycles a fixed set of
// evergreen items, restamping them so recency scoring does not starve
// the rundown.
type StaticWire struct {
	mu     sync.Mutex
	cursor int
	batch  int
}

// NewStaticWire creates the built-in wire emitting batchSize items per pull.
func NewStaticWire(batchSize int) *StaticWire {
	if batchSize <= 0 || batchSize > len(evergreen) {
		batchSize = 4
	}
	return &StaticWire{batch: batchSize}
}

// Name implements Source.
func (s *StaticWire) Name() string {
	return "static-wire"
}

// Pull implements Source. It never fails.
func (s *StaticWire) Pull(_ context.Context) ([]model.ContentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	items := make([]model.ContentItem, 0, s.batch)
	for i := 0; i < s.batch; i++ {
		e := evergreen[s.cursor]
		s.cursor = (s.cursor + 1) % len(evergreen)
		items = append(items, model.ContentItem{
			Title:              e.title,
			Summary:            e.summary,
			Category:           e.category,
			SourceKind:         model.SourceAggregated,
			PublishedAt:        now.Add(-time.Duration(i) * time.Minute),
			BreakdownPotential: e.charge,
		})
	}
	return items, nil
}
