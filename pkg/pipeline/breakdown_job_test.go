package pipeline

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"staticnews/pkg/breakdown"
	"staticnews/pkg/config"
	"staticnews/pkg/model"
)

type countingInjector struct {
	injected int
}

func (c *countingInjector) Inject(*model.SubSegmentInstance)          { c.injected++ }
func (c *countingInjector) ActiveInstance() *model.SubSegmentInstance { return nil }

func TestBreakdownJobFirstBeatOnlyArms(t *testing.T) {
	cfg := &config.BreakdownConfig{
		BaseProbability: 1,
		MaxProbability:  1,
		Duration:        config.Duration(5 * time.Minute),
		CheckInterval:   config.Duration(15 * time.Minute),
	}
	inj := &countingInjector{}
	sched := breakdown.NewScheduler(*cfg, inj, rand.NewSource(1))
	j := NewBreakdownJob(cfg, sched)

	t0 := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	// ShouldFire must not change job state; the dispatcher may call it
	// any number of times before running the job.
	assert.True(t, j.ShouldFire(t0))
	assert.True(t, j.ShouldFire(t0))
	assert.True(t, j.lastRun.IsZero())

	// The first run arms the timer without rolling the dice.
	j.Run(context.Background(), t0)
	assert.Equal(t, 0, inj.injected)

	assert.False(t, j.ShouldFire(t0.Add(time.Minute)))

	beat := t0.Add(15 * time.Minute)
	assert.True(t, j.ShouldFire(beat))
	j.Run(context.Background(), beat)
	assert.Equal(t, 1, inj.injected)
}
