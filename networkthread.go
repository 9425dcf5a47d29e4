// networkthread.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/DarkStar1997/stk-code/common"
	"github.com/DarkStar1997/stk-code/raceclock"
)

type snapshotPublisher interface {
	Publish(snap common.ClockSnapshot) (int, error)
}

// networkThread keeps the latest snapshot from the session, prints a display
// line on every phase change and mirrors the state to the feed: at once on a
// phase or pause change, and every BroadcastInterval so late subscribers
// catch up. pub may be nil for a display-only thread.
func networkThread(
	ctx context.Context,
	cfg common.FeedConfig,
	pub snapshotPublisher,
	snapCh <-chan common.ClockSnapshot,
	logger *log.Logger,
) {
	interval := cfg.BroadcastInterval
	if interval <= 0 {
		interval = common.DefaultConfig().Feed.BroadcastInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var latest common.ClockSnapshot
	have := false

	publish := func(reason string) {
		if pub == nil || !have {
			return
		}
		n, err := pub.Publish(latest)
		if err != nil {
			logger.Warn("networkThread: publish failed", "reason", reason, "err", err)
			return
		}
		logger.Debug("networkThread: published", "reason", reason, "seq", latest.Seq, "subscribers", n)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case snap := <-snapCh:
			changed := !have ||
				snap.Phase != latest.Phase ||
				snap.Paused != latest.Paused ||
				snap.RaceID != latest.RaceID
			latest, have = snap, true
			if changed {
				logger.Info(displayLine(snap))
				publish("state")
			}

		case <-ticker.C:
			publish("periodic")
		}
	}
}

// displayLine renders a snapshot the way a race HUD shows it.
func displayLine(snap common.ClockSnapshot) string {
	phase := raceclock.PhaseOf(snap)
	switch {
	case snap.Paused:
		return fmt.Sprintf("[paused] %s", common.FormatRaceTime(snap.Time))
	case phase == raceclock.PhaseReady || phase == raceclock.PhaseSet || phase == raceclock.PhaseGo:
		return fmt.Sprintf("[%s]", phase)
	case raceclock.ModeOf(snap) == raceclock.ModeNone:
		return fmt.Sprintf("[%s]", phase)
	default:
		return fmt.Sprintf("[%s] %s %s", phase, raceclock.ModeOf(snap), common.FormatRaceTime(snap.Time))
	}
}
