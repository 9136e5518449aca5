// Package pipeline runs the broadcast: a ticker-driven dispatcher fires
// periodic jobs, the orchestrator owns the active subsegment, and the
// render loop drains finished work to the playout sink.
package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"staticnews/pkg/config"
)

// Job defines a scheduled task.
type Job interface {
	Name() string
	ShouldFire(now time.Time) bool
	Run(ctx context.Context, now time.Time)
}

// BaseJob provides atomic running state to prevent re-entry.
type BaseJob struct {
	name    string
	running int32 // 1 if running, 0 otherwise
}

func NewBaseJob(name string) BaseJob {
	return BaseJob{name: name}
}

func (b *BaseJob) Name() string {
	return b.name
}

// TryLock attempts to set running to 1. Returns true if successful.
func (b *BaseJob) TryLock() bool {
	return atomic.CompareAndSwapInt32(&b.running, 0, 1)
}

func (b *BaseJob) Unlock() {
	atomic.StoreInt32(&b.running, 0)
}

func (b *BaseJob) isRunning() bool {
	return atomic.LoadInt32(&b.running) == 1
}

// Dispatcher manages the central heartbeat and scheduled jobs.
type Dispatcher struct {
	cfg  *config.PipelineConfig
	jobs []Job
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg *config.PipelineConfig) *Dispatcher {
	return &Dispatcher{cfg: cfg}
}

// AddJob registers a job.
func (d *Dispatcher) AddJob(j Job) {
	d.jobs = append(d.jobs, j)
}

// Start runs the main loop. It blocks until context is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	interval := d.cfg.TickInterval.Std()
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("Dispatcher started", "interval", interval, "jobs", len(d.jobs))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Dispatcher stopped")
			return
		case now := <-ticker.C:
			for _, job := range d.jobs {
				if job.ShouldFire(now) {
					// Fire and forget
					go job.Run(ctx, now)
				}
			}
		}
	}
}
