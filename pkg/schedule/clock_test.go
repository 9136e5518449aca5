package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staticnews/pkg/config"
	"staticnews/pkg/model"
)

func testSchedule(t *testing.T) *config.ScheduleConfig {
	t.Helper()
	cfg, err := config.LoadSchedule("")
	require.NoError(t, err)
	return cfg
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 8, 30, hour, minute, 0, 0, time.UTC)
}

func TestResolvePicksLastStartedEntry(t *testing.T) {
	clk := NewClock(testSchedule(t))

	first := clk.Resolve(at(10, 0))
	require.NotNil(t, first)
	assert.Equal(t, 0, first.Def.OffsetMinutes)

	later := clk.Resolve(at(10, 59))
	require.NotNil(t, later)
	assert.GreaterOrEqual(t, later.Def.OffsetMinutes, first.Def.OffsetMinutes)
	assert.LessOrEqual(t, later.Def.OffsetMinutes, 59)

	// Minutes in between resolve to the entry that most recently started.
	mid := clk.Resolve(at(10, later.Def.OffsetMinutes))
	assert.Equal(t, later.Key, mid.Key)
}

func TestResolveKeyIsSlotDerived(t *testing.T) {
	clk := NewClock(testSchedule(t))

	a := clk.Resolve(at(14, 5))
	b := clk.Resolve(at(14, 5))
	assert.Equal(t, a.Key, b.Key)

	nextDay := clk.Resolve(a.StartTime.Add(24 * time.Hour))
	assert.NotEqual(t, a.Key, nextDay.Key, "same slot on a different day is a different instance")
}

func TestTickReportsEachInstanceOnce(t *testing.T) {
	clk := NewClock(testSchedule(t))

	inst, changed := clk.Tick(at(9, 1))
	require.True(t, changed)
	require.NotNil(t, inst)

	// Polling the same slot at any frequency yields no more transitions.
	for m := 1; m <= 3; m++ {
		if next, again := clk.Tick(at(9, 1)); again {
			t.Fatalf("duplicate transition reported: %v", next.Key)
		}
	}
}

func TestTickTransitionsAcrossHour(t *testing.T) {
	clk := NewClock(testSchedule(t))

	first, changed := clk.Tick(at(9, 58))
	require.True(t, changed)

	second, changed := clk.Tick(at(10, 0))
	require.True(t, changed)
	assert.NotEqual(t, first.Key, second.Key)
}

func TestResetForcesRereport(t *testing.T) {
	clk := NewClock(testSchedule(t))

	inst, changed := clk.Tick(at(16, 2))
	require.True(t, changed)

	_, changed = clk.Tick(at(16, 2))
	require.False(t, changed)

	// After an injected segment ends the clock forgets its position and
	// re-reports whatever is natural now.
	clk.Reset()
	again, changed := clk.Tick(at(16, 2))
	require.True(t, changed)
	assert.Equal(t, inst.Key, again.Key)
}

func TestNaturalInstancesAreNotInjected(t *testing.T) {
	clk := NewClock(testSchedule(t))
	inst := clk.Resolve(at(3, 30))
	require.NotNil(t, inst)
	assert.False(t, inst.Injected())
	assert.False(t, inst.Expired(at(23, 59)))
	assert.NotEqual(t, model.SubSegBreaking, inst.Def.Type)
}
