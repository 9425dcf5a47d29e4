package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/DarkStar1997/stk-code/common"
	"github.com/DarkStar1997/stk-code/racenet"
	"github.com/DarkStar1997/stk-code/racesession"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one race on the local clock",
	Long: `Runs one race: loading, the ready/set/go lead-in, the race itself and the
delay-finish window. Control lines are read from stdin:
start, pause, resume, over, over-delay, limbo, reset, time <seconds>, mode <mode> <seconds>.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		bell, _ := cmd.Flags().GetBool("bell")

		var bellOut io.Writer
		if bell && term.IsTerminal(int(os.Stdout.Fd())) {
			bellOut = os.Stdout
		}
		prestart, start := common.TerminalCues(logger, bellOut)

		sess, err := racesession.New(cfg,
			racesession.WithLogger(logger),
			racesession.WithSounds(prestart, start),
		)
		if err != nil {
			return err
		}

		var feed *racenet.Feed
		if cfg.Feed.ListenAddr != "" {
			feed = racenet.NewFeed(cfg.Feed, logger)
			if err := feed.Listen(cfg.Feed.ListenAddr); err != nil {
				return err
			}
			defer feed.Close()
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		g, ctx := errgroup.WithContext(ctx)

		snapCh := make(chan common.ClockSnapshot, 64)

		if feed != nil {
			g.Go(func() error { return feed.Serve(ctx) })
		}
		g.Go(func() error {
			var pub snapshotPublisher
			if feed != nil {
				pub = feed
			}
			networkThread(ctx, cfg.Feed, pub, snapCh, logger)
			return nil
		})
		g.Go(func() error { return controlThread(ctx, cmd.InOrStdin(), sess, logger) })

		g.Go(func() error {
			defer cancel()
			return sess.Run(ctx, snapCh)
		})
		return g.Wait()
	},
}
