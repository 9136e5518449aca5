package voting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staticnews/pkg/config"
	"staticnews/pkg/events"
	"staticnews/pkg/model"
	"staticnews/pkg/store"
)

// memStore is an in-memory store.Store for manager tests.
type memStore struct {
	sessions   map[string]*store.SessionRecord
	votes      map[string]string // session+identity -> candidate
	failUpdate bool
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[string]*store.SessionRecord),
		votes:    make(map[string]string),
	}
}

func (m *memStore) RecordVote(_ context.Context, sessionID, identity, candidateID string) error {
	key := sessionID + "|" + identity
	if _, ok := m.votes[key]; ok {
		return model.ErrDuplicateVote
	}
	m.votes[key] = candidateID
	return nil
}

func (m *memStore) Tally(_ context.Context, sessionID string) (map[string]int, error) {
	counts := make(map[string]int)
	prefix := sessionID + "|"
	for key, cand := range m.votes {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			counts[cand]++
		}
	}
	return counts, nil
}

func (m *memStore) HasVoted(_ context.Context, sessionID, identity string) (bool, error) {
	_, ok := m.votes[sessionID+"|"+identity]
	return ok, nil
}

func (m *memStore) SaveSession(_ context.Context, s *store.SessionRecord) error {
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memStore) UpdateSession(_ context.Context, s *store.SessionRecord) error {
	if m.failUpdate {
		return errors.New("disk full")
	}
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memStore) OpenSession(_ context.Context) (*store.SessionRecord, error) {
	for _, s := range m.sessions {
		if s.State == StateOpen {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) RecordBroadcast(_ context.Context, _ *model.RenderedSegment) error {
	return nil
}

func (m *memStore) RecentBroadcasts(_ context.Context, _ int) ([]store.BroadcastRecord, error) {
	return nil, nil
}

func (m *memStore) GetCache(_ context.Context, _ string) ([]byte, bool) { return nil, false }
func (m *memStore) SetCache(_ context.Context, _ string, _ []byte) error {
	return nil
}
func (m *memStore) Close() error { return nil }

func testVotingConfig() *config.VotingConfig {
	return &config.VotingConfig{
		Cadence:         config.Duration(time.Hour),
		SessionDuration: config.Duration(10 * time.Minute),
		MaxCandidates:   4,
		ResultsWindow:   config.Duration(3 * time.Minute),
		AppearanceMin:   config.Duration(5 * time.Minute),
		AppearanceMax:   config.Duration(30 * time.Minute),
	}
}

func candidates(ids ...string) []Candidate {
	out := make([]Candidate, len(ids))
	for i, id := range ids {
		out[i] = Candidate{ID: id, Title: "Story " + id}
	}
	return out
}

func TestOpenAndStatus(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	m := New(testVotingConfig(), st, events.NewBus())
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	require.NoError(t, m.Open(ctx, candidates("a", "b", "c"), now))

	status := m.CurrentStatus()
	assert.Equal(t, StateOpen, status.State)
	assert.NotEmpty(t, status.SessionID)
	assert.Len(t, status.Candidates, 3)
	require.NotNil(t, status.ClosesAt)
	assert.Equal(t, now.Add(10*time.Minute), *status.ClosesAt)

	// Opening again while a session is live must fail.
	assert.ErrorIs(t, m.Open(ctx, candidates("d", "e"), now), model.ErrSessionOpen)
}

func TestOpenPublishesEventAndCapsCandidates(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()
	m := New(testVotingConfig(), newMemStore(), bus)

	require.NoError(t, m.Open(ctx, candidates("a", "b", "c", "d", "e", "f"), time.Now()))

	select {
	case ev := <-bus.VotingOpens:
		assert.Len(t, ev.Candidates, 4)
		assert.Equal(t, []string{"a", "b", "c", "d"}, ev.Candidates)
	default:
		t.Fatal("expected a VotingOpened event")
	}
}

func TestCastVoteRules(t *testing.T) {
	ctx := context.Background()
	m := New(testVotingConfig(), newMemStore(), events.NewBus())

	assert.ErrorIs(t, m.CastVote(ctx, "viewer-1", "a"), model.ErrSessionClosed)

	require.NoError(t, m.Open(ctx, candidates("a", "b"), time.Now()))

	assert.NoError(t, m.CastVote(ctx, "viewer-1", "a"))
	assert.ErrorIs(t, m.CastVote(ctx, "viewer-1", "b"), model.ErrDuplicateVote)
	assert.ErrorIs(t, m.CastVote(ctx, "viewer-2", "zzz"), model.ErrUnknownCandidate)
	assert.NoError(t, m.CastVote(ctx, "viewer-2", "b"))
}

func TestTallyPicksTopCandidate(t *testing.T) {
	ctx := context.Background()
	m := New(testVotingConfig(), newMemStore(), events.NewBus())
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	require.NoError(t, m.Open(ctx, candidates("a", "b", "c"), now))
	require.NoError(t, m.CastVote(ctx, "v1", "b"))
	require.NoError(t, m.CastVote(ctx, "v2", "b"))
	require.NoError(t, m.CastVote(ctx, "v3", "c"))

	assert.False(t, m.TallyDue(now.Add(5*time.Minute)))
	closeAt := now.Add(10 * time.Minute)
	require.True(t, m.TallyDue(closeAt))

	res, err := m.Tally(ctx, closeAt)
	require.NoError(t, err)
	assert.Equal(t, "b", res.Winner.ID)
	assert.Equal(t, 2, res.Counts["b"])
	assert.Equal(t, 1, res.Counts["c"])

	assert.Equal(t, StateClosed, m.CurrentStatus().State)
}

func TestTallyRetriesAfterStoreFailure(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	m := New(testVotingConfig(), ms, events.NewBus())
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	require.NoError(t, m.Open(ctx, candidates("a", "b"), now))
	require.NoError(t, m.CastVote(ctx, "v1", "b"))

	closeAt := now.Add(10 * time.Minute)
	ms.failUpdate = true
	_, err := m.Tally(ctx, closeAt)
	require.Error(t, err)

	// The session must stay open so the next beat tries again.
	assert.True(t, m.TallyDue(closeAt))
	assert.False(t, m.ShouldOpen(closeAt.Add(100*time.Hour)))

	ms.failUpdate = false
	res, err := m.Tally(ctx, closeAt)
	require.NoError(t, err)
	assert.Equal(t, "b", res.Winner.ID)
	assert.True(t, m.ShouldOpen(closeAt.Add(m.cfg.Cadence.Std())))
}

func TestTallyTiesBreakTowardListOrder(t *testing.T) {
	ctx := context.Background()
	m := New(testVotingConfig(), newMemStore(), events.NewBus())
	now := time.Now()

	require.NoError(t, m.Open(ctx, candidates("a", "b", "c"), now))
	require.NoError(t, m.CastVote(ctx, "v1", "b"))
	require.NoError(t, m.CastVote(ctx, "v2", "c"))

	res, err := m.Tally(ctx, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "b", res.Winner.ID, "equal counts resolve to the earlier-listed candidate")
}

func TestTallyWithNoVotesPicksFirstCandidate(t *testing.T) {
	ctx := context.Background()
	m := New(testVotingConfig(), newMemStore(), events.NewBus())
	now := time.Now()

	require.NoError(t, m.Open(ctx, candidates("a", "b"), now))

	res, err := m.Tally(ctx, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "a", res.Winner.ID)
}

func TestTallyAppearanceWindow(t *testing.T) {
	ctx := context.Background()
	cfg := testVotingConfig()
	m := New(cfg, newMemStore(), events.NewBus())
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	require.NoError(t, m.Open(ctx, candidates("a", "b"), now))
	res, err := m.Tally(ctx, now)
	require.NoError(t, err)

	earliest := now.Add(cfg.AppearanceMin.Std())
	latest := now.Add(cfg.AppearanceMax.Std())
	assert.False(t, res.AppearAt.Before(earliest), "appearance before the minimum delay")
	assert.False(t, res.AppearAt.After(latest), "appearance after the maximum delay")
}

func TestCheckWinnerDue(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()
	m := New(testVotingConfig(), newMemStore(), bus)
	now := time.Now()

	require.NoError(t, m.Open(ctx, candidates("a", "b"), now))
	res, err := m.Tally(ctx, now)
	require.NoError(t, err)

	m.CheckWinnerDue(res.AppearAt.Add(-time.Second))
	select {
	case <-bus.WinnersDue:
		t.Fatal("winner published before its appearance time")
	default:
	}

	m.CheckWinnerDue(res.AppearAt)
	select {
	case ev := <-bus.WinnersDue:
		assert.Equal(t, res.SessionID, ev.SessionID)
		assert.Equal(t, res.Winner.ID, ev.CandidateID)
	default:
		t.Fatal("expected a WinnerDue event")
	}

	// The pending result is consumed once.
	m.CheckWinnerDue(res.AppearAt.Add(time.Hour))
	select {
	case <-bus.WinnersDue:
		t.Fatal("winner published twice")
	default:
	}
}

func TestResumeRestoresOpenSession(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	bus := events.NewBus()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	first := New(testVotingConfig(), st, bus)
	require.NoError(t, first.Open(ctx, candidates("a", "b"), now))
	require.NoError(t, first.CastVote(ctx, "v1", "a"))

	// A fresh manager over the same store picks the session back up.
	second := New(testVotingConfig(), st, bus)
	require.NoError(t, second.Resume(ctx, now.Add(time.Minute)))

	status := second.CurrentStatus()
	assert.Equal(t, StateOpen, status.State)
	assert.Len(t, status.Candidates, 2)

	// Pre-restart votes still lock out their identity.
	assert.ErrorIs(t, second.CastVote(ctx, "v1", "b"), model.ErrDuplicateVote)
}

func TestResumeExpiredSessionTalliesImmediately(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	first := New(testVotingConfig(), st, events.NewBus())
	require.NoError(t, first.Open(ctx, candidates("a", "b"), now))

	restart := now.Add(time.Hour)
	second := New(testVotingConfig(), st, events.NewBus())
	require.NoError(t, second.Resume(ctx, restart))

	assert.True(t, second.TallyDue(restart))
}

func TestShouldOpenHonorsCadence(t *testing.T) {
	ctx := context.Background()
	m := New(testVotingConfig(), newMemStore(), events.NewBus())
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	assert.True(t, m.ShouldOpen(now), "first session opens immediately")

	require.NoError(t, m.Open(ctx, candidates("a", "b"), now))
	assert.False(t, m.ShouldOpen(now.Add(2*time.Hour)), "never while a session is live")

	_, err := m.Tally(ctx, now.Add(10*time.Minute))
	require.NoError(t, err)

	assert.False(t, m.ShouldOpen(now.Add(30*time.Minute)))
	assert.True(t, m.ShouldOpen(now.Add(time.Hour)))
}
