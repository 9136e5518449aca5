package model

import (
	"time"
)

// SourceKind identifies where a ContentItem came from.
type SourceKind string

const (
	// SourceAggregated marks items pulled from an external news source.
	SourceAggregated SourceKind = "aggregated"
	// SourceOriginal marks items authored by the story-creation stage.
	SourceOriginal SourceKind = "original"
	// SourceLive marks live/breaking items; these preempt the schedule.
	SourceLive SourceKind = "live"
)

// ContentItem is a unit of news content competing for airtime.
type ContentItem struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Summary            string     `json:"summary"`
	Category           string     `json:"category"` // breaking, investigative, weird, human_interest, opinion, ...
	SourceKind         SourceKind `json:"source_kind"`
	PublishedAt        time.Time  `json:"published_at"`
	BreakdownPotential float64    `json:"breakdown_potential"` // 0..1
	IsLive             bool       `json:"is_live"`

	// PriorityScore is recomputed by the scorer each selection cycle.
	PriorityScore float64 `json:"priority_score"`

	// Consumed is set once the item has been broadcast.
	Consumed bool `json:"consumed"`

	// Seq is the store insertion counter, used as the final ordering
	// tie-breaker so re-sorting is idempotent.
	Seq uint64 `json:"-"`
}

// Clone returns a shallow copy.
func (c *ContentItem) Clone() *ContentItem {
	cp := *c
	return &cp
}
