package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"staticnews/pkg/db"
	"staticnews/pkg/model"
)

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Votes ---

func (s *SQLiteStore) RecordVote(ctx context.Context, sessionID, identity, candidateID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO votes (session_id, identity, candidate_id) VALUES (?, ?, ?)`,
		sessionID, identity, candidateID)
	if err != nil {
		// The (session_id, identity) primary key enforces one vote per
		// identity; a constraint failure means a duplicate.
		if strings.Contains(err.Error(), "UNIQUE constraint") || strings.Contains(err.Error(), "constraint failed") {
			return model.ErrDuplicateVote
		}
		return err
	}
	return nil
}

func (s *SQLiteStore) HasVoted(ctx context.Context, sessionID, identity string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM votes WHERE session_id = ? AND identity = ?`,
		sessionID, identity).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) Tally(ctx context.Context, sessionID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, count(*) FROM votes WHERE session_id = ? GROUP BY candidate_id`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tally := make(map[string]int)
	for rows.Next() {
		var candidate string
		var count int
		if err := rows.Scan(&candidate, &count); err != nil {
			return nil, err
		}
		tally[candidate] = count
	}
	return tally, rows.Err()
}

// --- Sessions ---

func (s *SQLiteStore) SaveSession(ctx context.Context, rec *SessionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO voting_sessions (id, state, candidates, opened_at, closes_at, winner)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.State, strings.Join(rec.Candidates, ","),
		rec.OpenedAt.UTC(), rec.ClosesAt.UTC(), rec.Winner)
	return err
}

func (s *SQLiteStore) UpdateSession(ctx context.Context, rec *SessionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE voting_sessions SET state = ?, winner = ? WHERE id = ?`,
		rec.State, rec.Winner, rec.ID)
	return err
}

func (s *SQLiteStore) OpenSession(ctx context.Context) (*SessionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, state, candidates, opened_at, closes_at, winner
		 FROM voting_sessions WHERE state = 'open' ORDER BY opened_at DESC LIMIT 1`)

	var rec SessionRecord
	var candidates string
	var winner sql.NullString
	err := row.Scan(&rec.ID, &rec.State, &candidates, &rec.OpenedAt, &rec.ClosesAt, &winner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	if candidates != "" {
		rec.Candidates = strings.Split(candidates, ",")
	}
	rec.Winner = winner.String
	return &rec, nil
}

// --- History ---

func (s *SQLiteStore) RecordBroadcast(ctx context.Context, seg *model.RenderedSegment) error {
	var itemID, title, category string
	if seg.Item != nil {
		itemID, title, category = seg.Item.ID, seg.Item.Title, seg.Item.Category
	}
	var ssType string
	if seg.Instance != nil {
		ssType = string(seg.Instance.Def.Type)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO broadcast_history (item_id, title, category, subsegment_type, script_tier, media_tier, aired_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		itemID, title, category, ssType, seg.Script.Tier, seg.Media.Tier, seg.RenderedAt.UTC())
	return err
}

func (s *SQLiteStore) RecentBroadcasts(ctx context.Context, limit int) ([]BroadcastRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, title, category, subsegment_type, script_tier, media_tier, aired_at
		 FROM broadcast_history ORDER BY aired_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BroadcastRecord
	for rows.Next() {
		var rec BroadcastRecord
		if err := rows.Scan(&rec.ItemID, &rec.Title, &rec.Category, &rec.SubSegmentType,
			&rec.ScriptTier, &rec.MediaTier, &rec.AiredAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// --- Cache ---

func (s *SQLiteStore) GetCache(ctx context.Context, key string) ([]byte, bool) {
	var val []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM cache WHERE key = ?`, key).Scan(&val)
	if err != nil {
		return nil, false
	}
	return val, true
}

func (s *SQLiteStore) SetCache(ctx context.Context, key string, val []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache (key, value, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = excluded.created_at`,
		key, val, time.Now().UTC())
	return err
}
