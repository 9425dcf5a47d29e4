// cues.go
// Purpose: Terminal rendition of the race clock's sound cues. The clock only
// issues fire-and-forget play requests; this device logs them and can ring
// the terminal bell.
package common

import (
	"io"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

const bell = "\a"

// TerminalCue is a sound cue that logs its name and optionally writes a bell.
type TerminalCue struct {
	Name   string
	Bell   io.Writer
	Logger *log.Logger

	played atomic.Int64
}

// Play issues the cue. It never blocks on playback.
func (c *TerminalCue) Play() {
	c.played.Add(1)
	if c.Logger != nil {
		c.Logger.Info("cue", "sound", c.Name)
	}
	if c.Bell != nil {
		_, _ = io.WriteString(c.Bell, bell)
	}
}

// Played returns how many times the cue was issued.
func (c *TerminalCue) Played() int64 {
	return c.played.Load()
}

// TerminalCues returns the prestart ("ready"/"set" beep) and start ("go")
// cues. Pass a nil bell writer to keep the terminal quiet.
func TerminalCues(logger *log.Logger, bellOut io.Writer) (prestart, start *TerminalCue) {
	prestart = &TerminalCue{Name: "prestart", Bell: bellOut, Logger: logger}
	start = &TerminalCue{Name: "start", Bell: bellOut, Logger: logger}
	return prestart, start
}
