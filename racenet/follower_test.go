package racenet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarkStar1997/stk-code/common"
	"github.com/DarkStar1997/stk-code/raceclock"
)

func remote(race string, seq uint64, phase raceclock.Phase, mode raceclock.Mode, tm float64) common.ClockSnapshot {
	return common.ClockSnapshot{
		RaceID: race,
		Seq:    seq,
		Phase:  uint8(phase),
		Mode:   uint8(mode),
		Time:   tm,
	}
}

func localClock() *raceclock.Clock {
	return raceclock.New(raceclock.Durations{Ready: 1, Set: 1, Go: 1, DelayFinish: 2})
}

func TestFollowerAcceptOrdering(t *testing.T) {
	f := NewFollower(50*time.Millisecond, nil)
	_, ok := f.Latest()
	assert.False(t, ok)

	assert.True(t, f.Accept(remote("a", 5, raceclock.PhaseRace, raceclock.ModeChrono, 1)))
	assert.False(t, f.Accept(remote("a", 5, raceclock.PhaseRace, raceclock.ModeChrono, 2)), "duplicate")
	assert.False(t, f.Accept(remote("a", 3, raceclock.PhaseRace, raceclock.ModeChrono, 0.5)), "stale")
	assert.True(t, f.Accept(remote("a", 6, raceclock.PhaseRace, raceclock.ModeChrono, 1.5)))

	// A new race restarts sequencing.
	assert.True(t, f.Accept(remote("b", 1, raceclock.PhaseSetup, raceclock.ModeChrono, 0)))
	latest, ok := f.Latest()
	require.True(t, ok)
	assert.Equal(t, "b", latest.RaceID)
}

func TestFollowerDrivesLocalClock(t *testing.T) {
	f := NewFollower(100*time.Millisecond, nil)
	c := localClock()

	// Remote is counting down from the lead-in.
	f.Accept(remote("r1", 1, raceclock.PhaseReady, raceclock.ModeCountdown, 30))
	corr := f.Apply(c)
	assert.True(t, corr.Reset)
	assert.True(t, corr.ModeSet)
	assert.True(t, corr.Started)
	assert.Equal(t, raceclock.PhaseReady, c.Phase())
	assert.Equal(t, raceclock.ModeCountdown, c.Mode())
	assert.Equal(t, 30.0, c.Time())

	// Local lead-in runs on its own ticks.
	c.UpdateClock(1)
	c.UpdateClock(1)
	require.Equal(t, raceclock.PhaseGo, c.Phase())
	c.UpdateClock(2)
	require.Equal(t, 28.0, c.Time())

	// Small drift is tolerated.
	f.Accept(remote("r1", 2, raceclock.PhaseRace, raceclock.ModeCountdown, 28.05))
	corr = f.Apply(c)
	assert.False(t, corr.TimeSet)
	assert.InDelta(t, -0.05, corr.Drift, 1e-9)
	assert.False(t, corr.Changed())

	// Larger drift is corrected with SetTime.
	f.Accept(remote("r1", 3, raceclock.PhaseRace, raceclock.ModeCountdown, 27.5))
	corr = f.Apply(c)
	assert.True(t, corr.TimeSet)
	assert.Equal(t, 27.5, c.Time())
	assert.Equal(t, raceclock.PhaseRace, c.Phase())
}

func TestFollowerPauseAndFinish(t *testing.T) {
	f := NewFollower(50*time.Millisecond, nil)
	c := localClock()
	terminated := 0
	c.RegisterEventListener(raceclock.ListenerFuncs{OnTerminateFunc: func() { terminated++ }})

	f.Accept(remote("r", 1, raceclock.PhaseReady, raceclock.ModeChrono, 0))
	f.Apply(c)
	c.UpdateClock(1)
	c.UpdateClock(1)
	c.UpdateClock(3)
	require.Equal(t, raceclock.PhaseRace, c.Phase())

	paused := remote("r", 2, raceclock.PhaseLimbo, raceclock.ModeChrono, 3)
	paused.Paused = true
	f.Accept(paused)
	corr := f.Apply(c)
	assert.True(t, corr.Paused)
	assert.True(t, c.IsPaused())

	// Still paused: nothing else happens.
	assert.False(t, f.Apply(c).Changed())

	f.Accept(remote("r", 3, raceclock.PhaseDelayFinish, raceclock.ModeChrono, 3))
	corr = f.Apply(c)
	assert.True(t, corr.Unpaused)
	assert.True(t, corr.Finished)
	assert.Equal(t, raceclock.PhaseDelayFinish, c.Phase())
	assert.Zero(t, terminated)

	f.Accept(remote("r", 4, raceclock.PhaseFinish, raceclock.ModeChrono, 5))
	f.Apply(c)
	assert.Equal(t, raceclock.PhaseDelayFinish, c.Phase(), "the local grace window runs on its own")
	c.UpdateClock(2)
	assert.Equal(t, raceclock.PhaseFinish, c.Phase())
	assert.Equal(t, 1, terminated)

	f.Accept(remote("r", 5, raceclock.PhaseLimbo, raceclock.ModeChrono, 5))
	corr = f.Apply(c)
	assert.True(t, corr.Limbo)
	assert.Equal(t, raceclock.PhaseLimbo, c.Phase())
}

func TestFollowerWithoutSnapshot(t *testing.T) {
	f := NewFollower(0, nil)
	c := localClock()
	assert.False(t, f.Apply(c).Changed())
	assert.Equal(t, raceclock.PhaseSetup, c.Phase())
}

func TestFollowerJoinsMidRace(t *testing.T) {
	f := NewFollower(100*time.Millisecond, nil)
	c := localClock()
	goes := 0
	c.RegisterEventListener(raceclock.ListenerFuncs{OnGoFunc: func() { goes++ }})

	f.Accept(remote("late", 40, raceclock.PhaseRace, raceclock.ModeChrono, 30))
	corr := f.Apply(c)
	assert.True(t, corr.Started)
	assert.True(t, corr.ModeSet)
	assert.True(t, corr.LeadInSkipped)
	assert.Equal(t, raceclock.PhaseGo, c.Phase())
	assert.True(t, c.IsRacePhase())
	assert.Equal(t, 30.0, c.Time())
	assert.Equal(t, 1, goes)

	// The local clock keeps racing from the remote time, no second lead-in.
	for i := 1; i <= 15; i++ {
		c.UpdateClock(0.1)
		f.Accept(remote("late", 40+uint64(i), raceclock.PhaseRace, raceclock.ModeChrono, 30+0.1*float64(i)))
		assert.False(t, f.Apply(c).LeadInSkipped)
	}
	assert.Equal(t, raceclock.PhaseRace, c.Phase())
	assert.InDelta(t, 31.5, c.Time(), 1e-6)
	assert.Equal(t, 1, goes)
}

func TestFollowerJoinsDuringSet(t *testing.T) {
	f := NewFollower(100*time.Millisecond, nil)
	c := localClock()

	f.Accept(remote("r", 1, raceclock.PhaseSet, raceclock.ModeChrono, 0))
	corr := f.Apply(c)
	assert.True(t, corr.Started)
	assert.False(t, corr.LeadInSkipped, "before go the local lead-in plays out")
	assert.Equal(t, raceclock.PhaseReady, c.Phase())
}
