// Package breakdown injects the stochastic "existential breakdown"
// subsegments. An independent clock rolls the dice on a fixed cadence;
// the trigger probability ramps with uptime until it plateaus.
package breakdown

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"staticnews/pkg/config"
	"staticnews/pkg/model"
)

// Injector receives the synthesized breakdown instance. The orchestrator
// implements it.
type Injector interface {
	Inject(inst *model.SubSegmentInstance)
	ActiveInstance() *model.SubSegmentInstance
}

// Scheduler is the independent breakdown process.
type Scheduler struct {
	cfg      config.BreakdownConfig
	injector Injector
	rng      *rand.Rand
	started  time.Time
}

// NewScheduler creates a Scheduler. The random source is injectable for
// tests.
func NewScheduler(cfg config.BreakdownConfig, inj Injector, src rand.Source) *Scheduler {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Scheduler{
		cfg:      cfg,
		injector: inj,
		rng:      rand.New(src),
		started:  time.Now(),
	}
}

// Probability returns the trigger probability after the given uptime:
// base + uptimeHours*ramp, capped at the maximum. Monotone non-decreasing
// in uptime. The probability is compared directly against a uniform draw;
// it is not scaled down further.
func (s *Scheduler) Probability(uptime time.Duration) float64 {
	p := s.cfg.BaseProbability + uptime.Hours()*s.cfg.HourlyRamp
	if p > s.cfg.MaxProbability {
		p = s.cfg.MaxProbability
	}
	return p
}

// Check rolls once and injects a breakdown when the roll succeeds and no
// injected instance is already on air. Returns true when a breakdown was
// injected.
func (s *Scheduler) Check(now time.Time) bool {
	p := s.Probability(now.Sub(s.started))
	if s.rng.Float64() >= p {
		return false
	}

	if active := s.injector.ActiveInstance(); active != nil && active.Injected() {
		// Never stack on top of breaking news or another breakdown.
		slog.Debug("Breakdown: roll hit but an injected segment is on air", "active", active.Key)
		return false
	}

	inst := &model.SubSegmentInstance{
		Def: model.SubSegmentDef{
			Type:            model.SubSegBreakdown,
			DurationMinutes: int(s.cfg.Duration.Std().Minutes()),
		},
		SegmentName: "Existential Breakdown",
		StartTime:   now,
		Key:         "breakdown-" + uuid.NewString(),
		Deadline:    now.Add(s.cfg.Duration.Std()),
	}
	slog.Info("Breakdown: triggered", "probability", p, "until", inst.Deadline)
	s.injector.Inject(inst)
	return true
}

// Run checks on the configured cadence until the context ends.
func (s *Scheduler) Run(ctx context.Context) {
	interval := s.cfg.CheckInterval.Std()
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			s.Check(t)
		}
	}
}
