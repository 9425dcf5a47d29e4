package main

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/DarkStar1997/stk-code/common"
	"github.com/DarkStar1997/stk-code/racenet"
	"github.com/DarkStar1997/stk-code/racesession"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Subscribe to a race feed",
	Long: `Subscribes to the snapshot feed of a running race and prints it. With --follow
a local clock is driven from the feed and corrected when it drifts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")
		follow, _ := cmd.Flags().GetBool("follow")

		ctx := cmd.Context()
		if !follow {
			return racenet.WatchWithRetry(ctx, addr, cfg.Feed, logger, func(snap common.ClockSnapshot) {
				logger.Info(displayLine(snap), "seq", snap.Seq)
			})
		}

		follower := racenet.NewFollower(cfg.Feed.DriftTolerance, logger)
		sess, err := racesession.New(cfg,
			racesession.WithLogger(logger),
			racesession.WithFollower(follower),
		)
		if err != nil {
			return err
		}

		g, ctx := errgroup.WithContext(ctx)
		snapCh := make(chan common.ClockSnapshot, 64)
		g.Go(func() error {
			followThread(ctx, addr, cfg.Feed, sess, logger)
			return nil
		})
		g.Go(func() error {
			networkThread(ctx, cfg.Feed, nil, snapCh, logger)
			return nil
		})
		g.Go(func() error { return sess.Run(ctx, snapCh) })
		return g.Wait()
	},
}

// followThread forwards every remote snapshot to the session as a sync
// command. It keeps reconnecting until ctx is done.
func followThread(
	ctx context.Context,
	addr string,
	cfg common.FeedConfig,
	sess commandSender,
	logger *log.Logger,
) {
	logger.Info("followThread: following", "feed", addr)
	_ = racenet.WatchWithRetry(ctx, addr, cfg, logger, func(snap common.ClockSnapshot) {
		if err := sess.Send(ctx, racesession.Sync(snap)); err != nil && ctx.Err() == nil {
			logger.Warn("followThread: dropping snapshot", "seq", snap.Seq, "err", err)
		}
	})
}
