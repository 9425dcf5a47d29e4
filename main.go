// main.go
// Purpose: racetimer entry point. Loads configuration, builds the logger and
// starts the session, feed, control and follow threads for the selected
// subcommand. Shuts down on interrupt (Ctrl+C).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/DarkStar1997/stk-code/common"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "racetimer",
	Short:         "Race clock with ready/set/go lead-in",
	Long:          `Runs a race clock (chrono or countdown) with the ready/set/go lead-in and a delay-finish window, and mirrors it to displays over a QUIC snapshot feed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := common.LoadConfig(configPath, cmd.Flags())
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	runCmd.Flags().String("mode", "", "Clock mode: none, chrono or countdown")
	runCmd.Flags().Duration("initial-time", 0, "Initial race time (countdown start value)")
	runCmd.Flags().Duration("race-length", 0, "Simulated finish line after this much racing (0 disables)")
	runCmd.Flags().Bool("finish-delay", false, "Enter delay-finish instead of finishing at once")
	runCmd.Flags().Duration("frame-interval", 0, "Frame interval of the clock loop")
	runCmd.Flags().String("listen", "", "Serve the snapshot feed on this UDP address")
	runCmd.Flags().Bool("bell", false, "Ring the terminal bell on start cues")

	watchCmd.Flags().String("addr", "", "Feed address to subscribe to")
	watchCmd.Flags().Bool("follow", false, "Drive a local clock from the feed instead of printing it")
	watchCmd.Flags().Duration("drift-tolerance", 0, "Correct the local clock when it drifts further than this")
	_ = watchCmd.MarkFlagRequired("addr")

	rootCmd.AddCommand(runCmd, watchCmd, configCmd)
}

// setup loads the configuration for cmd and builds the logger from it.
func setup(cmd *cobra.Command) (common.Config, *log.Logger, error) {
	cfg, err := common.LoadConfig(configPath, cmd.Flags())
	if err != nil {
		return common.Config{}, nil, err
	}
	logger, err := common.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return common.Config{}, nil, err
	}
	return cfg, logger, nil
}

func main() {
	// ctrl + c handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
