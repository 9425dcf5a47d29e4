package racenet

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	quic "github.com/quic-go/quic-go"

	"github.com/DarkStar1997/stk-code/common"
)

const (
	minBackoff = 200 * time.Millisecond
	maxBackoff = 2 * time.Second
)

// Watch subscribes to the feed at addr and calls handler for every snapshot
// until ctx is done or the feed goes away. Undecodable frames are skipped.
func Watch(
	ctx context.Context,
	addr string,
	cfg common.FeedConfig,
	logger *log.Logger,
	handler func(common.ClockSnapshot),
) error {
	if logger == nil {
		logger = common.DiscardLogger()
	}

	conn, st, err := DialQUIC(ctx, addr, QUICConfig(cfg), cfg.HandshakeTimeout)
	if err != nil {
		return err
	}
	defer CloseQUIC(conn, st, "bye")

	if err := helloFeed(st, cfg); err != nil {
		return err
	}
	logger.Info("watch: connected", "feed", addr)

	stop := context.AfterFunc(ctx, func() {
		CloseQUIC(conn, st, "bye")
	})
	defer stop()

	fr := newFrameReader(st, cfg.FrameSize)
	for {
		kind, payload, err := fr.next(0)
		if err != nil {
			if errors.Is(err, ErrBadFrame) {
				logger.Warn("watch: skipping frame", "err", err)
				continue
			}
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return errors.Wrap(err, "read feed")
		}
		snap, err := snapshotFrom(kind, payload)
		if err != nil {
			logger.Warn("watch: skipping frame", "err", err)
			continue
		}
		handler(snap)
	}
}

// retryBackoff doubles the reconnect wait up to maxBackoff. A connection that
// stayed up longer than maxBackoff starts over from minBackoff.
type retryBackoff struct {
	wait time.Duration
}

// next returns how long to wait before reconnecting after a connection that
// lasted up.
func (b *retryBackoff) next(up time.Duration) time.Duration {
	if b.wait == 0 || up > maxBackoff {
		b.wait = minBackoff
	} else {
		b.wait = min(2*b.wait, maxBackoff)
	}
	return b.wait
}

// WatchWithRetry keeps a subscription alive: connect, read until the feed
// closes, reconnect with backoff. It returns when ctx is done.
func WatchWithRetry(
	ctx context.Context,
	addr string,
	cfg common.FeedConfig,
	logger *log.Logger,
	handler func(common.ClockSnapshot),
) error {
	if logger == nil {
		logger = common.DiscardLogger()
	}
	var backoff retryBackoff
	for ctx.Err() == nil {
		started := time.Now()
		err := Watch(ctx, addr, cfg, logger, handler)
		if ctx.Err() != nil {
			break
		}
		wait := backoff.next(time.Since(started))
		if err != nil {
			logger.Warn("watch: feed unavailable", "feed", addr, "err", err, "retry", wait)
		} else {
			logger.Info("watch: feed closed, reconnecting", "feed", addr, "retry", wait)
		}

		select {
		case <-ctx.Done():
		case <-time.After(wait):
		}
	}
	return nil
}

func helloFeed(st *quic.Stream, cfg common.FeedConfig) error {
	if err := writeHello(st, roleSubscriber, cfg.FrameSize, cfg.HandshakeTimeout); err != nil {
		return err
	}
	return readHello(newFrameReader(st, cfg.FrameSize), roleFeed, cfg.HandshakeTimeout)
}
