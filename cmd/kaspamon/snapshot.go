package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kostyay/kaspamon/internal/config"
	"github.com/kostyay/kaspamon/internal/logging"
	"github.com/kostyay/kaspamon/internal/output"
	"github.com/kostyay/kaspamon/internal/services"
)

const (
	defaultSnapshotWait = 3 * time.Second
	snapshotLogLines    = 50
)

var snapshotWait time.Duration

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Collect node and market state for a while and print it as JSON",
	Long: `Connect to the node and poll the market once, then print the collected
state as JSON. A managed node is never started by this command.

Examples:
  kaspamon snapshot
  kaspamon snapshot --wait 10s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(configPath)
		if err != nil {
			return err
		}
		return runSnapshot(cmd.Context(), settings, snapshotWait, os.Stdout)
	},
}

func init() {
	snapshotCmd.Flags().DurationVarP(&snapshotWait, "wait", "w", defaultSnapshotWait, "How long to collect before printing")
	rootCmd.AddCommand(snapshotCmd)
}

// runSnapshot runs the runtime for wait without touching the node process
// and writes the resulting snapshot to w.
func runSnapshot(ctx context.Context, settings *config.Settings, wait time.Duration, w io.Writer) error {
	s := *settings
	s.Node.AutoStart = false
	s.Updates.Enabled = false
	s.Metrics.Listen = ""

	logger, err := logging.New(s.Logging, false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	rt, err := services.New(services.Options{Settings: &s, Version: version, Logger: logger})
	if err != nil {
		return err
	}
	rt.Start(ctx)

	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
	_ = rt.Shutdown(shutdownTimeout)

	rec := rt.Reconciler()
	rec.Tick()
	return output.RenderJSON(w, rec.Snapshot(), time.Now().UTC(), snapshotLogLines)
}
