package raceclock

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Phase is one stage of race progression.
//
// The ordinals are part of the contract, not an implementation detail:
// IsStart and IsRace are defined by ordinal comparison, and the values are
// carried as-is in snapshots. Do not reorder.
//
//	0 setup         track/world loading
//	1 ready         "ready" is displayed
//	2 set           "set" is displayed
//	3 go            "go" is displayed, but this is already race phase
//	4 race          racing, no lead-in text anymore
//	5 delay-finish  grace window for stragglers after the first finisher
//	6 finish        results are displayed, control is automatic
//	7 limbo         nothing is calculated anymore (also shown while paused)
type Phase uint8

const (
	PhaseSetup        Phase = 0
	PhaseReady        Phase = 1
	PhaseSet          Phase = 2
	PhaseGo           Phase = 3
	PhaseRace         Phase = 4
	PhaseDelayFinish  Phase = 5
	PhaseFinish       Phase = 6
	PhaseLimbo        Phase = 7
	numPhases               = 8
	pausedPhase             = PhaseLimbo
	firstRacePhase          = PhaseGo
	firstNonRacePhase       = PhaseLimbo
)

// IsStart reports whether p is before the race starts. Go is both a start
// and a race phase in spirit, but counts as race here.
func (p Phase) IsStart() bool { return p < firstRacePhase }

// IsRace reports whether the race is running or winding down.
func (p Phase) IsRace() bool { return p >= firstRacePhase && p < firstNonRacePhase }

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseReady:
		return "ready"
	case PhaseSet:
		return "set"
	case PhaseGo:
		return "go"
	case PhaseRace:
		return "race"
	case PhaseDelayFinish:
		return "delay-finish"
	case PhaseFinish:
		return "finish"
	case PhaseLimbo:
		return "limbo"
	default:
		return "undefined"
	}
}

// Mode is the counting direction of the race timer.
type Mode uint8

const (
	ModeNone      Mode = 0 // clock is cosmetic only
	ModeChrono    Mode = 1 // counts up
	ModeCountdown Mode = 2 // counts down, clamped at zero
)

// ErrUnknownMode is returned by ParseMode for names it does not know.
var ErrUnknownMode = errors.New("unknown clock mode")

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeChrono:
		return "chrono"
	case ModeCountdown:
		return "countdown"
	default:
		return "undefined"
	}
}

// ParseMode accepts none, chrono or countdown in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return ModeNone, nil
	case "chrono":
		return ModeChrono, nil
	case "countdown":
		return ModeCountdown, nil
	}
	return ModeNone, errors.Wrapf(ErrUnknownMode, "%q", s)
}

func (m Mode) MarshalText() ([]byte, error) {
	if m > ModeCountdown {
		return nil, errors.Wrapf(ErrUnknownMode, "ordinal %d", uint8(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
