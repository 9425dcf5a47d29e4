package racenet

import (
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/DarkStar1997/stk-code/common"
	"github.com/DarkStar1997/stk-code/raceclock"
)

// Follower keeps a local clock in step with a remote one seen through the
// feed. The local clock keeps ticking on its own frames; the follower only
// nudges it with public clock operations and corrects its time when it
// drifts beyond the tolerance.
type Follower struct {
	tolerance float64
	log       *log.Logger

	raceID  string
	lastSeq uint64
	have    bool
	latest  common.ClockSnapshot
	// newRace is set when the remote race id changed and the local clock
	// still has to be reset.
	newRace bool
}

// Correction reports what Apply changed on the local clock.
type Correction struct {
	Reset    bool
	ModeSet  bool
	Paused   bool
	Unpaused bool
	Started  bool
	// LeadInSkipped is set when the remote was already past the start
	// signal and the local ready/set lead-in was run out at once.
	LeadInSkipped bool
	Finished      bool
	Limbo         bool
	TimeSet       bool
	// Drift is local minus remote race time before correction.
	Drift float64
}

// Changed reports whether Apply touched the clock at all.
func (c Correction) Changed() bool {
	return c.Reset || c.ModeSet || c.Paused || c.Unpaused || c.Started || c.LeadInSkipped || c.Finished || c.Limbo || c.TimeSet
}

func NewFollower(tolerance time.Duration, logger *log.Logger) *Follower {
	if logger == nil {
		logger = common.DiscardLogger()
	}
	return &Follower{
		tolerance: common.Seconds(tolerance),
		log:       logger,
	}
}

// Accept records snap when it is newer than the last one of the same race.
// A different race id starts a new race and restarts sequencing.
func (f *Follower) Accept(snap common.ClockSnapshot) bool {
	if f.have && snap.RaceID == f.raceID && snap.Seq <= f.lastSeq {
		return false
	}
	if !f.have || snap.RaceID != f.raceID {
		if f.have {
			f.log.Info("follower: new race", "race", snap.RaceID, "previous", f.raceID)
		}
		f.raceID = snap.RaceID
		f.newRace = true
	}
	f.have = true
	f.lastSeq = snap.Seq
	f.latest = snap
	return true
}

// Latest returns the most recently accepted snapshot.
func (f *Follower) Latest() (common.ClockSnapshot, bool) {
	return f.latest, f.have
}

// Apply steers c toward the latest remote snapshot. It must run on the
// goroutine that owns c.
func (f *Follower) Apply(c *raceclock.Clock) Correction {
	var out Correction
	if !f.have {
		return out
	}
	remote := f.latest

	if f.newRace {
		f.newRace = false
		c.Reset()
		out.Reset = true
	}

	if mode := raceclock.ModeOf(remote); mode != c.Mode() {
		c.SetMode(mode, remote.Time)
		out.ModeSet = true
	}

	if remote.Paused {
		if !c.IsPaused() {
			c.Pause()
			out.Paused = true
		}
		return out
	}
	if c.IsPaused() {
		c.Unpause()
		out.Unpaused = true
	}

	rp := raceclock.PhaseOf(remote)
	if rp >= raceclock.PhaseReady && c.Phase() == raceclock.PhaseSetup {
		out.Started = c.StartCountdown()
	}
	if rp >= raceclock.PhaseGo {
		out.LeadInSkipped = skipLeadIn(c)
	}
	if rp > raceclock.PhaseRace && c.Phase() <= raceclock.PhaseRace {
		c.RaceOver(rp == raceclock.PhaseDelayFinish)
		out.Finished = true
	}
	if rp == raceclock.PhaseLimbo && c.Phase() == raceclock.PhaseFinish {
		out.Limbo = c.EnterLimbo()
	}

	if rp.IsRace() && c.IsRacePhase() && c.Mode() != raceclock.ModeNone {
		out.Drift = c.Time() - remote.Time
		if math.Abs(out.Drift) > f.tolerance {
			c.SetTime(remote.Time)
			out.TimeSet = true
		}
	}

	if out.Changed() {
		f.log.Debug("follower: corrected",
			"remote_phase", rp,
			"local_phase", c.Phase(),
			"drift", out.Drift,
			"time_set", out.TimeSet,
		)
	}
	return out
}

// skipLeadIn runs the ready and set phases out in one go so a late joiner
// starts racing at once. The usual cues and OnGo still fire.
func skipLeadIn(c *raceclock.Clock) bool {
	skipped := false
	for i := 0; i < 2; i++ {
		var limit float64
		switch c.Phase() {
		case raceclock.PhaseReady:
			limit = c.Durations().Ready
		case raceclock.PhaseSet:
			limit = c.Durations().Set
		default:
			return skipped
		}
		c.UpdateClock(limit)
		skipped = true
	}
	return skipped
}
