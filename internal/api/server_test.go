package api

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staticnews/pkg/cache"
	"staticnews/pkg/config"
	"staticnews/pkg/content"
	"staticnews/pkg/events"
	"staticnews/pkg/model"
	"staticnews/pkg/pipeline"
	"staticnews/pkg/schedule"
	"staticnews/pkg/scorer"
	"staticnews/pkg/store"
	"staticnews/pkg/tracker"
	"staticnews/pkg/voting"
)

// fakeStore is an in-memory store.Store for handler tests.
type fakeStore struct {
	sessions map[string]*store.SessionRecord
	votes    map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[string]*store.SessionRecord),
		votes:    make(map[string]string),
	}
}

func (f *fakeStore) RecordVote(_ context.Context, sessionID, identity, candidateID string) error {
	key := sessionID + "|" + identity
	if _, ok := f.votes[key]; ok {
		return model.ErrDuplicateVote
	}
	f.votes[key] = candidateID
	return nil
}

func (f *fakeStore) Tally(_ context.Context, sessionID string) (map[string]int, error) {
	counts := make(map[string]int)
	for key, cand := range f.votes {
		if strings.HasPrefix(key, sessionID+"|") {
			counts[cand]++
		}
	}
	return counts, nil
}

func (f *fakeStore) HasVoted(_ context.Context, sessionID, identity string) (bool, error) {
	_, ok := f.votes[sessionID+"|"+identity]
	return ok, nil
}

func (f *fakeStore) SaveSession(_ context.Context, s *store.SessionRecord) error {
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeStore) UpdateSession(_ context.Context, s *store.SessionRecord) error {
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeStore) OpenSession(_ context.Context) (*store.SessionRecord, error) {
	for _, s := range f.sessions {
		if s.State == voting.StateOpen {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) RecordBroadcast(_ context.Context, _ *model.RenderedSegment) error {
	return nil
}

func (f *fakeStore) RecentBroadcasts(_ context.Context, _ int) ([]store.BroadcastRecord, error) {
	return []store.BroadcastRecord{{ItemID: "aired-1", Title: "Previously Aired"}}, nil
}

func (f *fakeStore) GetCache(_ context.Context, _ string) ([]byte, bool)  { return nil, false }
func (f *fakeStore) SetCache(_ context.Context, _ string, _ []byte) error { return nil }
func (f *fakeStore) Close() error                                         { return nil }

type testEnv struct {
	server *http.Server
	items  *content.Store
	orch   *pipeline.Orchestrator
	mgr    *voting.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.DefaultConfig()
	sched, err := config.LoadSchedule("")
	require.NoError(t, err)

	st := newFakeStore()
	items := content.NewStore(50)
	bus := events.NewBus()
	orch := pipeline.NewOrchestrator(
		cfg, items, scorer.NewWithSource(rand.NewSource(1)),
		schedule.NewClock(sched), bus, cache.NewMemory(),
		func(err error) { t.Fatalf("scheduling fault: %v", err) },
	)
	mgr := voting.New(&cfg.Voting, st, bus)

	statusH := NewStatusHandler(orch, sched, st)
	votingH := NewVotingHandler(mgr, items, st)
	statsH := NewStatsHandler(tracker.New(), items, orch, nil, []string{"gemini", "procedural"})

	return &testEnv{
		server: NewServer(":0", statusH, votingH, statsH, nil, func() {}),
		items:  items,
		orch:   orch,
		mgr:    mgr,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestVersionEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/version", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["version"])
}

func TestOnAirEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.orch.TickClock(time.Date(2026, 8, 30, 12, 5, 0, 0, time.UTC))

	rec := env.do(t, http.MethodGet, "/api/onair", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Active *model.SubSegmentInstance `json:"active"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Active)
	assert.Equal(t, model.SubSegHeadlines, resp.Active.Def.Type)
}

func TestScheduleEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/schedule", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Segment *model.Segment          `json:"segment"`
		Next    *model.Segment          `json:"next"`
		Recent  []store.BroadcastRecord `json:"recent"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Segment)
	require.NotNil(t, resp.Next)
	require.Len(t, resp.Recent, 1)
	assert.Equal(t, "aired-1", resp.Recent[0].ItemID)
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.items.Add(&model.ContentItem{ID: "a", Title: "A", PublishedAt: time.Now()})

	rec := env.do(t, http.MethodGet, "/api/stats", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Pipeline struct {
			ContentItems int `json:"content_items"`
		} `json:"pipeline"`
		ScriptChain []string `json:"script_chain"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Pipeline.ContentItems)
	assert.Equal(t, []string{"gemini", "procedural"}, resp.ScriptChain)
}

func TestVotingOpenAndVoteFlow(t *testing.T) {
	env := newTestEnv(t)
	env.items.Add(&model.ContentItem{ID: "a", Title: "Story A", PublishedAt: time.Now()})
	env.items.Add(&model.ContentItem{ID: "b", Title: "Story B", PublishedAt: time.Now()})

	rec := env.do(t, http.MethodPost, "/api/voting/open", `{"candidate_ids":["a","b"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/voting/vote", `{"identity":"viewer-1","candidate_id":"a"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The same identity cannot vote twice.
	rec = env.do(t, http.MethodPost, "/api/voting/vote", `{"identity":"viewer-1","candidate_id":"b"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown candidates are rejected.
	rec = env.do(t, http.MethodPost, "/api/voting/vote", `{"identity":"viewer-2","candidate_id":"zzz"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/voting/results", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var results struct {
		State  string         `json:"state"`
		Counts map[string]int `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Equal(t, voting.StateOpen, results.State)
	assert.Equal(t, 1, results.Counts["a"])
}

func TestVotingOpenRejectsBadRequests(t *testing.T) {
	env := newTestEnv(t)
	env.items.Add(&model.ContentItem{ID: "a", Title: "Story A", PublishedAt: time.Now()})
	env.items.Add(&model.ContentItem{ID: "b", Title: "Story B", PublishedAt: time.Now()})

	rec := env.do(t, http.MethodPost, "/api/voting/open", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/voting/open", `{"candidate_ids":["a","missing"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/voting/open", `{"candidate_ids":["a"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A second open while a session is live conflicts.
	rec = env.do(t, http.MethodPost, "/api/voting/open", `{"candidate_ids":["a","b"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/voting/open", `{"candidate_ids":["a","b"]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestVoteWithoutOpenSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/voting/vote", `{"identity":"viewer-1","candidate_id":"a"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestVoteRequiresIdentityAndCandidate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/voting/vote", `{"identity":"","candidate_id":"a"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/voting/vote", `{"identity":"viewer-1","candidate_id":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
