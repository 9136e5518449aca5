package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"staticnews/pkg/content"
	"staticnews/pkg/model"
	"staticnews/pkg/store"
	"staticnews/pkg/voting"
)

// VotingHandler is the voting transport. Identity is a stable client
// token the frontend generates once and replays with every vote.
type VotingHandler struct {
	mgr   *voting.Manager
	items *content.Store
	votes store.VoteStore
}

// NewVotingHandler creates a VotingHandler.
func NewVotingHandler(mgr *voting.Manager, items *content.Store, votes store.VoteStore) *VotingHandler {
	return &VotingHandler{mgr: mgr, items: items, votes: votes}
}

type openRequest struct {
	CandidateIDs []string `json:"candidate_ids"`
}

// HandleOpen opens a session over explicit candidates. The periodic
// voting job opens sessions on cadence; this is the manual override.
func (h *VotingHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	candidates := make([]voting.Candidate, 0, len(req.CandidateIDs))
	for _, id := range req.CandidateIDs {
		item := h.items.Get(id)
		if item == nil {
			writeError(w, http.StatusBadRequest, "unknown item: "+id)
			return
		}
		candidates = append(candidates, voting.Candidate{ID: item.ID, Title: item.Title})
	}
	if len(candidates) < 2 {
		writeError(w, http.StatusBadRequest, "at least two candidates required")
		return
	}

	if err := h.mgr.Open(r.Context(), candidates, time.Now()); err != nil {
		if errors.Is(err, model.ErrSessionOpen) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		slog.Error("API: voting open failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not open session")
		return
	}
	writeJSON(w, h.mgr.CurrentStatus())
}

type voteRequest struct {
	Identity    string `json:"identity"`
	CandidateID string `json:"candidate_id"`
}

// HandleVote casts one vote. Duplicate and unknown-candidate casts leave
// the tally unchanged and report why.
func (h *VotingHandler) HandleVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Identity == "" || req.CandidateID == "" {
		writeError(w, http.StatusBadRequest, "identity and candidate_id required")
		return
	}

	err := h.mgr.CastVote(r.Context(), req.Identity, req.CandidateID)
	switch {
	case err == nil:
		writeJSON(w, map[string]string{"status": "counted"})
	case errors.Is(err, model.ErrDuplicateVote):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrUnknownCandidate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrSessionClosed):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("API: vote failed", "error", err)
		writeError(w, http.StatusInternalServerError, "vote not recorded")
	}
}

type resultsResponse struct {
	voting.Status
	Counts map[string]int `json:"counts,omitempty"`
}

// HandleResults returns the current session and its running counts.
func (h *VotingHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	status := h.mgr.CurrentStatus()
	resp := resultsResponse{Status: status}

	if status.SessionID != "" {
		counts, err := h.votes.Tally(r.Context(), status.SessionID)
		if err != nil {
			slog.Warn("API: tally read failed", "error", err)
		} else {
			resp.Counts = counts
		}
	}
	writeJSON(w, resp)
}
