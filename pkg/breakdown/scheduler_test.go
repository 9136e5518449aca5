package breakdown

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staticnews/pkg/config"
	"staticnews/pkg/model"
)

type fakeInjector struct {
	active   *model.SubSegmentInstance
	injected []*model.SubSegmentInstance
}

func (f *fakeInjector) Inject(inst *model.SubSegmentInstance) {
	f.injected = append(f.injected, inst)
}

func (f *fakeInjector) ActiveInstance() *model.SubSegmentInstance {
	return f.active
}

func testConfig() config.BreakdownConfig {
	return config.BreakdownConfig{
		BaseProbability: 0.05,
		HourlyRamp:      0.02,
		MaxProbability:  0.3,
		Duration:        config.Duration(5 * time.Minute),
	}
}

func TestProbabilityRampsWithUptime(t *testing.T) {
	s := NewScheduler(testConfig(), &fakeInjector{}, rand.NewSource(1))

	assert.InDelta(t, 0.05, s.Probability(0), 1e-9)
	assert.InDelta(t, 0.07, s.Probability(time.Hour), 1e-9)
	assert.InDelta(t, 0.25, s.Probability(10*time.Hour), 1e-9)
}

func TestProbabilityIsCapped(t *testing.T) {
	s := NewScheduler(testConfig(), &fakeInjector{}, rand.NewSource(1))

	assert.InDelta(t, 0.3, s.Probability(100*time.Hour), 1e-9)
	assert.InDelta(t, 0.3, s.Probability(10000*time.Hour), 1e-9)
}

func TestCheckInjectsWhenRollSucceeds(t *testing.T) {
	cfg := testConfig()
	// Uniform draws land in [0,1), so probability 1 always fires.
	cfg.BaseProbability = 1
	cfg.MaxProbability = 1

	inj := &fakeInjector{}
	s := NewScheduler(cfg, inj, rand.NewSource(1))

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.True(t, s.Check(now))
	require.Len(t, inj.injected, 1)

	inst := inj.injected[0]
	assert.Equal(t, model.SubSegBreakdown, inst.Def.Type)
	assert.True(t, inst.Injected())
	assert.Equal(t, now, inst.StartTime)
	assert.Equal(t, now.Add(5*time.Minute), inst.Deadline)
	assert.NotEmpty(t, inst.Key)
}

func TestCheckSkipsWhenRollFails(t *testing.T) {
	cfg := testConfig()
	cfg.BaseProbability = 0
	cfg.HourlyRamp = 0
	cfg.MaxProbability = 0

	inj := &fakeInjector{}
	s := NewScheduler(cfg, inj, rand.NewSource(1))

	assert.False(t, s.Check(time.Now()))
	assert.Empty(t, inj.injected)
}

func TestCheckNeverStacksOnInjectedSegment(t *testing.T) {
	cfg := testConfig()
	cfg.BaseProbability = 1
	cfg.MaxProbability = 1

	t.Run("breakdown on air", func(t *testing.T) {
		active := &model.SubSegmentInstance{
			Def:      model.SubSegmentDef{Type: model.SubSegBreakdown},
			Key:      "breakdown-1",
			Deadline: time.Now().Add(time.Minute),
		}
		inj := &fakeInjector{active: active}
		s := NewScheduler(cfg, inj, rand.NewSource(1))

		assert.False(t, s.Check(time.Now()))
		assert.Empty(t, inj.injected)
	})

	t.Run("natural segment on air", func(t *testing.T) {
		active := &model.SubSegmentInstance{
			Def: model.SubSegmentDef{Type: model.SubSegStory},
			Key: "2026-08-30-12-10",
		}
		inj := &fakeInjector{active: active}
		s := NewScheduler(cfg, inj, rand.NewSource(1))

		assert.True(t, s.Check(time.Now()))
		assert.Len(t, inj.injected, 1)
	})
}

func TestInjectedKeysAreUnique(t *testing.T) {
	cfg := testConfig()
	cfg.BaseProbability = 1
	cfg.MaxProbability = 1

	inj := &fakeInjector{}
	s := NewScheduler(cfg, inj, rand.NewSource(1))

	s.Check(time.Now())
	s.Check(time.Now())

	require.Len(t, inj.injected, 2)
	assert.NotEqual(t, inj.injected[0].Key, inj.injected[1].Key)
}
