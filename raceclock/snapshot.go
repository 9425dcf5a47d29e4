package raceclock

import "github.com/DarkStar1997/stk-code/common"

// Snapshot returns the clock state as polled by displays. RaceID and Seq
// are left for the owner of the clock to fill in.
func (c *Clock) Snapshot() common.ClockSnapshot {
	return common.ClockSnapshot{
		Phase:     uint8(c.phase),
		PhaseName: c.phase.String(),
		Mode:      uint8(c.mode),
		ModeName:  c.mode.String(),
		Time:      c.time,
		Aux:       c.aux.elapsed,
		Paused:    c.IsPaused(),
		StartPh:   c.IsStartPhase(),
		RacePh:    c.IsRacePhase(),
	}
}

// PhaseOf and ModeOf decode the ordinals carried in a snapshot.
func PhaseOf(s common.ClockSnapshot) Phase { return Phase(s.Phase) }

func ModeOf(s common.ClockSnapshot) Mode { return Mode(s.Mode) }
