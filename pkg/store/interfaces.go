package store

import (
	"context"
	"time"

	"staticnews/pkg/model"
)

// VoteStore persists votes keyed by (session, identity). The persisted
// key is what enforces one vote per identity across page reloads.
type VoteStore interface {
	// RecordVote stores the vote, returning model.ErrDuplicateVote when
	// the identity already voted in the session.
	RecordVote(ctx context.Context, sessionID, identity, candidateID string) error
	Tally(ctx context.Context, sessionID string) (map[string]int, error)
	HasVoted(ctx context.Context, sessionID, identity string) (bool, error)
}

// SessionStore persists voting session lifecycle.
type SessionStore interface {
	SaveSession(ctx context.Context, s *SessionRecord) error
	UpdateSession(ctx context.Context, s *SessionRecord) error
	OpenSession(ctx context.Context) (*SessionRecord, error)
}

// HistoryStore records what aired.
type HistoryStore interface {
	RecordBroadcast(ctx context.Context, seg *model.RenderedSegment) error
	RecentBroadcasts(ctx context.Context, limit int) ([]BroadcastRecord, error)
}

// CacheStore is the sqlite key-value cache.
type CacheStore interface {
	GetCache(ctx context.Context, key string) ([]byte, bool)
	SetCache(ctx context.Context, key string, val []byte) error
}

// Store composes all sub-interfaces for full store access. Consumers
// should depend on specific sub-interfaces when possible.
type Store interface {
	VoteStore
	SessionStore
	HistoryStore
	CacheStore

	// Close closes the store connection.
	Close() error
}

// SessionRecord is the persisted form of a voting session.
type SessionRecord struct {
	ID         string
	State      string
	Candidates []string
	OpenedAt   time.Time
	ClosesAt   time.Time
	Winner     string
}

// BroadcastRecord is one aired segment in the history log.
type BroadcastRecord struct {
	ItemID         string    `json:"item_id"`
	Title          string    `json:"title"`
	Category       string    `json:"category"`
	SubSegmentType string    `json:"subsegment_type"`
	ScriptTier     string    `json:"script_tier"`
	MediaTier      string    `json:"media_tier"`
	AiredAt        time.Time `json:"aired_at"`
}
