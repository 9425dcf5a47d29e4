package main

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/DarkStar1997/stk-code/raceclock"
	"github.com/DarkStar1997/stk-code/racesession"
)

var errBadControl = errors.New("bad control line")

type commandSender interface {
	Send(ctx context.Context, cmd racesession.Command) error
}

// controlThread turns control lines from r into session commands until r is
// exhausted or ctx is done. It returns as soon as ctx is done; the line
// reader may stay parked in Read until r yields, which for stdin lasts
// until the process exits.
func controlThread(ctx context.Context, r io.Reader, sess commandSender, logger *log.Logger) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil && ctx.Err() == nil {
					logger.Warn("controlThread: input closed", "err", err)
				}
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			cmd, err := parseControl(line)
			if err != nil {
				logger.Warn("controlThread: ignoring line", "line", line, "err", err)
				continue
			}
			if err := sess.Send(ctx, cmd); err != nil {
				return nil
			}
		}
	}
}

func parseControl(line string) (racesession.Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return racesession.Command{}, errBadControl
	}
	args := fields[1:]

	switch fields[0] {
	case "start":
		return racesession.Start(), nil
	case "pause":
		return racesession.Pause(), nil
	case "resume", "unpause":
		return racesession.Unpause(), nil
	case "over":
		return racesession.RaceOver(false), nil
	case "over-delay":
		return racesession.RaceOver(true), nil
	case "limbo":
		return racesession.Limbo(), nil
	case "reset":
		return racesession.Reset(), nil
	case "time":
		if len(args) != 1 {
			return racesession.Command{}, errors.Wrap(errBadControl, "usage: time <seconds>")
		}
		t, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return racesession.Command{}, errors.Wrapf(errBadControl, "time %q", args[0])
		}
		return racesession.SetTime(t), nil
	case "mode":
		if len(args) < 1 || len(args) > 2 {
			return racesession.Command{}, errors.Wrap(errBadControl, "usage: mode <none|chrono|countdown> [seconds]")
		}
		mode, err := raceclock.ParseMode(args[0])
		if err != nil {
			return racesession.Command{}, err
		}
		var t float64
		if len(args) == 2 {
			if t, err = strconv.ParseFloat(args[1], 64); err != nil {
				return racesession.Command{}, errors.Wrapf(errBadControl, "mode time %q", args[1])
			}
		}
		return racesession.SetMode(mode, t), nil
	default:
		return racesession.Command{}, errors.Wrapf(errBadControl, "unknown command %q", fields[0])
	}
}
