// Package voting runs the audience voting sessions. A session moves
// closed -> open -> tallying -> closed; votes are persisted keyed by
// (session, identity) so a reload cannot vote twice.
package voting

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"staticnews/pkg/config"
	"staticnews/pkg/events"
	"staticnews/pkg/model"
	"staticnews/pkg/store"
)

// Session states as persisted.
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateTallying = "tallying"
)

// Candidate is one votable story.
type Candidate struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Result is the outcome of a tallied session.
type Result struct {
	SessionID string
	Winner    Candidate
	Counts    map[string]int
	// AppearAt is when the winner goes on air. The delay is random so
	// the result lands mid-programming rather than on the tally beat.
	AppearAt time.Time
}

// Manager owns the session state machine.
type Manager struct {
	mu       sync.Mutex
	cfg      *config.VotingConfig
	store    store.Store
	bus      *events.Bus
	rng      *rand.Rand
	session  *store.SessionRecord
	cands    []Candidate
	pending  *Result
	lastOpen time.Time
}

// New creates a Manager.
func New(cfg *config.VotingConfig, st store.Store, bus *events.Bus) *Manager {
	return &Manager{
		cfg:   cfg,
		store: st,
		bus:   bus,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Resume restores a persisted open session after a restart. Votes cast
// before the restart keep counting; identities that voted stay locked out.
func (m *Manager) Resume(ctx context.Context, now time.Time) error {
	rec, err := m.store.OpenSession(ctx)
	if err != nil {
		return fmt.Errorf("load open session: %w", err)
	}
	if rec == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !rec.ClosesAt.After(now) {
		// Expired while we were down: tally it on the next beat.
		rec.ClosesAt = now
	}
	m.session = rec
	m.cands = make([]Candidate, 0, len(rec.Candidates))
	for _, id := range rec.Candidates {
		m.cands = append(m.cands, Candidate{ID: id})
	}
	slog.Info("Voting: resumed session", "session", rec.ID, "closes_at", rec.ClosesAt)
	return nil
}

// ShouldOpen reports whether the cadence calls for a new session.
func (m *Manager) ShouldOpen(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		return false
	}
	return m.lastOpen.IsZero() || now.Sub(m.lastOpen) >= m.cfg.Cadence.Std()
}

// Open starts a session over the given candidates. Candidate order is
// preserved; it decides ties at tally time.
func (m *Manager) Open(ctx context.Context, candidates []Candidate, now time.Time) error {
	if len(candidates) == 0 {
		return fmt.Errorf("no candidates")
	}
	if len(candidates) > m.cfg.MaxCandidates {
		candidates = candidates[:m.cfg.MaxCandidates]
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		return model.ErrSessionOpen
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	rec := &store.SessionRecord{
		ID:         uuid.NewString(),
		State:      StateOpen,
		Candidates: ids,
		OpenedAt:   now,
		ClosesAt:   now.Add(m.cfg.SessionDuration.Std()),
	}
	if err := m.store.SaveSession(ctx, rec); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	m.session = rec
	m.cands = candidates
	m.lastOpen = now

	m.bus.PublishVotingOpened(events.VotingOpened{
		SessionID:  rec.ID,
		Candidates: ids,
		ClosesAt:   rec.ClosesAt,
	})
	slog.Info("Voting: session opened", "session", rec.ID, "candidates", len(ids), "closes_at", rec.ClosesAt)
	return nil
}

// CastVote records one vote. A failed cast leaves the tally unchanged.
func (m *Manager) CastVote(ctx context.Context, identity, candidateID string) error {
	m.mu.Lock()
	if m.session == nil || m.session.State != StateOpen {
		m.mu.Unlock()
		return model.ErrSessionClosed
	}
	sessionID := m.session.ID
	known := false
	for _, c := range m.cands {
		if c.ID == candidateID {
			known = true
			break
		}
	}
	m.mu.Unlock()

	if !known {
		return model.ErrUnknownCandidate
	}
	return m.store.RecordVote(ctx, sessionID, identity, candidateID)
}

// TallyDue reports whether the open session has reached its deadline.
func (m *Manager) TallyDue(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil && m.session.State == StateOpen && !now.Before(m.session.ClosesAt)
}

// Tally closes the session and picks the winner. Ties break toward the
// earlier position in the candidate list, so the outcome is deterministic.
func (m *Manager) Tally(ctx context.Context, now time.Time) (*Result, error) {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return nil, model.ErrSessionClosed
	}
	m.session.State = StateTallying
	rec := m.session
	cands := m.cands
	m.mu.Unlock()

	counts, err := m.store.Tally(ctx, rec.ID)
	if err != nil {
		m.mu.Lock()
		m.session.State = StateOpen
		m.mu.Unlock()
		return nil, fmt.Errorf("tally session %s: %w", rec.ID, err)
	}

	winner := cands[0]
	best := counts[winner.ID]
	for _, c := range cands[1:] {
		if counts[c.ID] > best {
			winner = c
			best = counts[c.ID]
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delay := m.cfg.AppearanceMin.Std()
	if span := m.cfg.AppearanceMax.Std() - m.cfg.AppearanceMin.Std(); span > 0 {
		delay += time.Duration(m.rng.Int63n(int64(span)))
	}
	res := &Result{
		SessionID: rec.ID,
		Winner:    winner,
		Counts:    counts,
		AppearAt:  now.Add(delay),
	}

	rec.State = StateClosed
	rec.Winner = winner.ID
	if err := m.store.UpdateSession(ctx, rec); err != nil {
		// Reopen so the next beat retries; otherwise a transient store
		// error would leave the session wedged in a closed state the
		// deadline checks never revisit.
		rec.State = StateOpen
		rec.Winner = ""
		return nil, fmt.Errorf("close session %s: %w", rec.ID, err)
	}

	m.session = nil
	m.cands = nil
	m.pending = res
	slog.Info("Voting: session tallied",
		"session", res.SessionID, "winner", winner.ID, "votes", best, "appear_at", res.AppearAt)
	return res, nil
}

// CheckWinnerDue publishes the pending winner once its appearance time
// arrives. Safe to call every tick.
func (m *Manager) CheckWinnerDue(now time.Time) {
	m.mu.Lock()
	if m.pending == nil || now.Before(m.pending.AppearAt) {
		m.mu.Unlock()
		return
	}
	res := m.pending
	m.pending = nil
	m.mu.Unlock()

	m.bus.PublishWinnerDue(events.WinnerDue{
		SessionID:   res.SessionID,
		CandidateID: res.Winner.ID,
		At:          now,
	})
}

// Status is the API view of the current session.
type Status struct {
	State      string      `json:"state"`
	SessionID  string      `json:"session_id,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
	ClosesAt   *time.Time  `json:"closes_at,omitempty"`
}

// CurrentStatus returns a snapshot for the HTTP layer.
func (m *Manager) CurrentStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Status{State: StateClosed}
	}
	closes := m.session.ClosesAt
	return Status{
		State:      m.session.State,
		SessionID:  m.session.ID,
		Candidates: m.cands,
		ClosesAt:   &closes,
	}
}
