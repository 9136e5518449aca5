package pipeline

import (
	"context"
	"log/slog"
	"time"

	"staticnews/pkg/config"
	"staticnews/pkg/content"
	"staticnews/pkg/events"
	"staticnews/pkg/scorer"
	"staticnews/pkg/voting"
)

// VotingJob drives the voting lifecycle: opening sessions on cadence,
// tallying at the deadline, and landing the winner on air when its
// delayed appearance comes due.
type VotingJob struct {
	BaseJob
	cfg   *config.VotingConfig
	mgr   *voting.Manager
	store *content.Store
	orch  *Orchestrator
	bus   *events.Bus
}

// NewVotingJob creates the voting job.
func NewVotingJob(cfg *config.VotingConfig, mgr *voting.Manager, st *content.Store, orch *Orchestrator, bus *events.Bus) *VotingJob {
	return &VotingJob{
		BaseJob: NewBaseJob("Voting"),
		cfg:     cfg,
		mgr:     mgr,
		store:   st,
		orch:    orch,
		bus:     bus,
	}
}

// ShouldFire fires every dispatcher tick; the manager's own state checks
// make the common case a few mutex hits.
func (j *VotingJob) ShouldFire(time.Time) bool {
	return !j.isRunning()
}

func (j *VotingJob) Run(ctx context.Context, now time.Time) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()

	// Winners waiting on their appearance window.
	j.mgr.CheckWinnerDue(now)
	for drained := false; !drained; {
		select {
		case ev := <-j.bus.WinnersDue:
			j.orch.PresentWinner(ev.CandidateID, now)
		default:
			drained = true
		}
	}

	if j.mgr.TallyDue(now) {
		if _, err := j.mgr.Tally(ctx, now); err != nil {
			slog.Warn("Voting: tally failed", "error", err)
		}
		return
	}

	if j.mgr.ShouldOpen(now) {
		j.openSession(ctx, now)
	}
}

// openSession nominates the top unconsumed stories as candidates.
func (j *VotingJob) openSession(ctx context.Context, now time.Time) {
	ranked := scorer.Rank(j.store.Candidates())
	candidates := make([]voting.Candidate, 0, j.cfg.MaxCandidates)
	for _, item := range ranked {
		if item.IsLive {
			continue
		}
		candidates = append(candidates, voting.Candidate{ID: item.ID, Title: item.Title})
		if len(candidates) == j.cfg.MaxCandidates {
			break
		}
	}
	if len(candidates) < 2 {
		slog.Debug("Voting: not enough candidates to open a session", "have", len(candidates))
		return
	}
	if err := j.mgr.Open(ctx, candidates, now); err != nil {
		slog.Warn("Voting: open failed", "error", err)
	}
}
