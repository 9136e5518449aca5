package pipeline

import (
	"context"
	"time"

	"staticnews/pkg/config"
)

// ClockJob advances the segment clock. Resolution is idempotent per
// instance, so firing more often than the check interval is harmless.
type ClockJob struct {
	BaseJob
	orch     *Orchestrator
	interval time.Duration
	lastRun  time.Time
}

// NewClockJob creates the clock job.
func NewClockJob(cfg *config.ClockConfig, orch *Orchestrator) *ClockJob {
	interval := cfg.CheckInterval.Std()
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &ClockJob{
		BaseJob:  NewBaseJob("Clock"),
		orch:     orch,
		interval: interval,
	}
}

func (j *ClockJob) ShouldFire(now time.Time) bool {
	if j.isRunning() {
		return false
	}
	return j.lastRun.IsZero() || now.Sub(j.lastRun) >= j.interval
}

func (j *ClockJob) Run(_ context.Context, now time.Time) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()

	j.lastRun = now
	j.orch.TickClock(now)
}
