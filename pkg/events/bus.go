// Package events carries the typed messages connecting the broadcast
// subsystems. Each event kind has its own channel so components subscribe
// only to what they consume; publishing never blocks a worker.
package events

import (
	"log/slog"
	"time"

	"staticnews/pkg/model"
)

// SegmentChanged fires when the active SubSegment instance is replaced,
// naturally or by interrupt.
type SegmentChanged struct {
	Previous *model.SubSegmentInstance
	Current  *model.SubSegmentInstance
	At       time.Time
}

// BreakingStory fires when a live item is ingested or the story-creation
// collaborator raises an explicit breaking signal.
type BreakingStory struct {
	Item   *model.ContentItem
	Reason string
	At     time.Time
}

// VotingOpened fires when a voting session opens.
type VotingOpened struct {
	SessionID  string
	Candidates []string
	ClosesAt   time.Time
}

// WinnerDue fires when a voting winner's delayed appearance comes due.
type WinnerDue struct {
	SessionID   string
	CandidateID string
	At          time.Time
}

const busDepth = 16

// Bus bundles the event channels.
type Bus struct {
	SegmentChanges chan SegmentChanged
	Breaking       chan BreakingStory
	VotingOpens    chan VotingOpened
	WinnersDue     chan WinnerDue
}

// NewBus creates a Bus with buffered channels.
func NewBus() *Bus {
	return &Bus{
		SegmentChanges: make(chan SegmentChanged, busDepth),
		Breaking:       make(chan BreakingStory, busDepth),
		VotingOpens:    make(chan VotingOpened, busDepth),
		WinnersDue:     make(chan WinnerDue, busDepth),
	}
}

// PublishSegmentChange delivers without blocking; a full channel drops the
// event with a warning, since a stalled consumer must not stall the clock.
func (b *Bus) PublishSegmentChange(ev SegmentChanged) {
	select {
	case b.SegmentChanges <- ev:
	default:
		slog.Warn("Events: segment-change channel full, dropping", "key", ev.Current.Key)
	}
}

// PublishBreaking delivers without blocking.
func (b *Bus) PublishBreaking(ev BreakingStory) {
	select {
	case b.Breaking <- ev:
	default:
		slog.Warn("Events: breaking channel full, dropping", "reason", ev.Reason)
	}
}

// PublishVotingOpened delivers without blocking.
func (b *Bus) PublishVotingOpened(ev VotingOpened) {
	select {
	case b.VotingOpens <- ev:
	default:
		slog.Warn("Events: voting-open channel full, dropping", "session", ev.SessionID)
	}
}

// PublishWinnerDue delivers without blocking.
func (b *Bus) PublishWinnerDue(ev WinnerDue) {
	select {
	case b.WinnersDue <- ev:
	default:
		slog.Warn("Events: winner-due channel full, dropping", "session", ev.SessionID)
	}
}
