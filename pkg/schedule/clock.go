// Package schedule resolves wall-clock time against the 24-hour
// programming table.
package schedule

import (
	"sync"
	"time"

	"staticnews/pkg/config"
	"staticnews/pkg/model"
)

// Clock resolves the active SubSegment for any instant and detects
// transitions. Resolution is a pure function of the wall clock, so
// polling at any frequency reports each instance exactly once.
type Clock struct {
	cfg *config.ScheduleConfig

	mu      sync.Mutex
	lastKey string
}

// NewClock creates a Clock over a validated programming table.
func NewClock(cfg *config.ScheduleConfig) *Clock {
	return &Clock{cfg: cfg}
}

// Resolve returns the SubSegment instance scheduled at the given instant:
// the segment for the hour, and within it the last timeline entry whose
// offset is not after the current minute (the most recently started one).
func (c *Clock) Resolve(now time.Time) *model.SubSegmentInstance {
	seg := c.cfg.SegmentFor(now.Hour())
	if seg == nil {
		return nil
	}

	// Timeline entries are ordered by offset; walk to the last eligible.
	def := seg.SubSegments[0]
	for _, ss := range seg.SubSegments {
		if ss.OffsetMinutes > now.Minute() {
			break
		}
		def = ss
	}

	start := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), def.OffsetMinutes, 0, 0, now.Location())
	return &model.SubSegmentInstance{
		Def:         def,
		SegmentName: seg.Name,
		StartTime:   start,
		Key:         model.NaturalInstanceKey(now, now.Hour(), def.OffsetMinutes),
	}
}

// Tick resolves the instant and reports the instance only when it differs
// from the previously reported one. High-frequency polling never yields
// duplicate transitions for the same instance.
func (c *Clock) Tick(now time.Time) (*model.SubSegmentInstance, bool) {
	inst := c.Resolve(now)
	if inst == nil {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if inst.Key == c.lastKey {
		return nil, false
	}
	c.lastKey = inst.Key
	return inst, true
}

// Reset clears transition memory, so the next Tick reports whatever it
// resolves. Used after an injected instance expires: control returns to
// the natural schedule at that later time, never to the preempted
// instance.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastKey = ""
}
