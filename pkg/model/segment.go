package model

import (
	"fmt"
	"time"
)

// SubSegmentType tags a slice of airtime within a Segment.
type SubSegmentType string

const (
	SubSegHeadlines  SubSegmentType = "headlines"
	SubSegStory      SubSegmentType = "story"
	SubSegWeather    SubSegmentType = "weather"
	SubSegBanter     SubSegmentType = "banter"
	SubSegBreaking   SubSegmentType = "breaking"
	SubSegBreakdown  SubSegmentType = "breakdown"
	SubSegVoteResult SubSegmentType = "vote_result"
)

// SubSegmentDef is an immutable timeline entry inside a Segment.
type SubSegmentDef struct {
	OffsetMinutes   int            `yaml:"offset" json:"offset_minutes"`
	Type            SubSegmentType `yaml:"type" json:"type"`
	DurationMinutes int            `yaml:"duration" json:"duration_minutes"`
}

// Segment is one hour-long programming block. Loaded once, never mutated.
type Segment struct {
	Hour        int             `yaml:"hour" json:"hour"` // 0-23
	Name        string          `yaml:"name" json:"name"`
	SubSegments []SubSegmentDef `yaml:"subsegments" json:"subsegments"`
}

// SubSegmentInstance is a live occurrence of a SubSegmentDef. At most one
// instance is active system-wide.
type SubSegmentInstance struct {
	Def         SubSegmentDef `json:"def"`
	SegmentName string        `json:"segment_name"`
	StartTime   time.Time     `json:"start_time"`
	Interrupted bool          `json:"interrupted"`

	// Key uniquely identifies the instance: natural instances derive it
	// from the wall-clock slot, injected ones carry a synthetic key.
	Key string `json:"key"`

	// Deadline is set for injected instances (breaking, breakdown,
	// vote_result); zero for natural ones, which end at the next
	// timeline transition.
	Deadline time.Time `json:"deadline,omitempty"`
}

// NaturalInstanceKey derives the instance key for a scheduled slot.
func NaturalInstanceKey(day time.Time, hour, offsetMinutes int) string {
	return fmt.Sprintf("%s-%02d-%02d", day.Format("20060102"), hour, offsetMinutes)
}

// Injected reports whether the instance was injected outside the timeline.
func (s *SubSegmentInstance) Injected() bool {
	return !s.Deadline.IsZero()
}

// Expired reports whether an injected instance has passed its deadline.
func (s *SubSegmentInstance) Expired(now time.Time) bool {
	return s.Injected() && now.After(s.Deadline)
}
