package racesession

import (
	"fmt"

	"github.com/DarkStar1997/stk-code/common"
	"github.com/DarkStar1997/stk-code/raceclock"
)

// CommandKind selects the clock operation a Command performs.
type CommandKind int

const (
	CmdStart CommandKind = iota + 1
	CmdSetMode
	CmdSetTime
	CmdPause
	CmdUnpause
	CmdRaceOver
	CmdLimbo
	CmdReset
	// CmdSync feeds a remote snapshot to the session's follower.
	CmdSync
)

func (k CommandKind) String() string {
	switch k {
	case CmdStart:
		return "start"
	case CmdSetMode:
		return "set-mode"
	case CmdSetTime:
		return "set-time"
	case CmdPause:
		return "pause"
	case CmdUnpause:
		return "unpause"
	case CmdRaceOver:
		return "race-over"
	case CmdLimbo:
		return "limbo"
	case CmdReset:
		return "reset"
	case CmdSync:
		return "sync"
	default:
		return fmt.Sprintf("command(%d)", int(k))
	}
}

// Command is a control request applied between frames. Only the fields the
// kind needs are read.
type Command struct {
	Kind CommandKind

	Mode  raceclock.Mode // CmdSetMode
	Time  float64        // CmdSetMode, CmdSetTime
	Delay bool           // CmdRaceOver

	Snapshot common.ClockSnapshot // CmdSync
}

func Start() Command   { return Command{Kind: CmdStart} }
func Pause() Command   { return Command{Kind: CmdPause} }
func Unpause() Command { return Command{Kind: CmdUnpause} }
func Limbo() Command   { return Command{Kind: CmdLimbo} }
func Reset() Command   { return Command{Kind: CmdReset} }

func SetMode(mode raceclock.Mode, initialTime float64) Command {
	return Command{Kind: CmdSetMode, Mode: mode, Time: initialTime}
}

func SetTime(t float64) Command {
	return Command{Kind: CmdSetTime, Time: t}
}

func RaceOver(delay bool) Command {
	return Command{Kind: CmdRaceOver, Delay: delay}
}

func Sync(snap common.ClockSnapshot) Command {
	return Command{Kind: CmdSync, Snapshot: snap}
}

func (k CommandKind) valid() bool {
	return k >= CmdStart && k <= CmdSync
}
