package pipeline

import (
	"context"
	"time"

	"staticnews/pkg/breakdown"
	"staticnews/pkg/config"
)

// BreakdownJob rolls the breakdown dice on its own cadence, independent
// of the segment clock.
type BreakdownJob struct {
	BaseJob
	sched    *breakdown.Scheduler
	interval time.Duration
	lastRun  time.Time
}

// NewBreakdownJob creates the breakdown job.
func NewBreakdownJob(cfg *config.BreakdownConfig, sched *breakdown.Scheduler) *BreakdownJob {
	interval := cfg.CheckInterval.Std()
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &BreakdownJob{
		BaseJob:  NewBaseJob("Breakdown"),
		sched:    sched,
		interval: interval,
	}
}

func (j *BreakdownJob) ShouldFire(now time.Time) bool {
	if j.isRunning() {
		return false
	}
	return j.lastRun.IsZero() || now.Sub(j.lastRun) >= j.interval
}

func (j *BreakdownJob) Run(_ context.Context, now time.Time) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()
	first := j.lastRun.IsZero()
	j.lastRun = now
	if first {
		// The first beat only arms the timer; an anchor needs uptime
		// before cracking.
		return
	}
	j.sched.Check(now)
}
