package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/kostyay/kaspamon/internal/config"
	"github.com/kostyay/kaspamon/internal/crash"
	"github.com/kostyay/kaspamon/internal/logging"
	"github.com/kostyay/kaspamon/internal/model"
	"github.com/kostyay/kaspamon/internal/output"
	"github.com/kostyay/kaspamon/internal/reconcile"
	"github.com/kostyay/kaspamon/internal/services"
	"github.com/kostyay/kaspamon/internal/ui"
)

const (
	shutdownTimeout = 20 * time.Second
	statusInterval  = 30 * time.Second
)

var (
	configPath   string
	headlessMode bool
	jsonOutput   bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default $XDG_CONFIG_HOME/kaspamon/settings.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print one JSON snapshot and exit (for scripting/agent consumption)")
	rootCmd.Flags().BoolVar(&headlessMode, "headless", false, "Run without the TUI, logging status to stderr")
}

var rootCmd = &cobra.Command{
	Use:   "kaspamon",
	Short: "Kaspa node and market monitor",
	Long: `kaspamon supervises a Kaspa node, tracks its sync progress and polls
market data, rendering everything in a terminal UI.

The node is either spawned locally, driven inside a docker container or
reached over wRPC, depending on node.mode in the settings file.

  kaspamon              # TUI
  kaspamon --headless   # log status lines instead of the TUI
  kaspamon --json       # one JSON snapshot`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(configPath)
		if err != nil {
			return err
		}

		if jsonOutput {
			return runSnapshot(cmd.Context(), settings, defaultSnapshotWait, os.Stdout)
		}

		// Headless mode: explicit flag or non-TTY stdout
		headless := headlessMode || !term.IsTerminal(int(os.Stdout.Fd()))
		return run(cmd.Context(), settings, headless)
	},
}

// loadSettings reads the settings file, then .env and KASPAMON_* overrides.
func loadSettings(path string) (*config.Settings, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	settings, err := config.LoadSettings(path)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if err := settings.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}

func run(ctx context.Context, settings *config.Settings, headless bool) error {
	logger, err := logging.New(settings.Logging, headless)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	mode := crash.Graceful
	if headless {
		mode = crash.Ungraceful
	}
	reporter := crash.Install(crash.Options{
		Mode:   mode,
		Dir:    settings.Diagnostics.Dir,
		Logger: logger,
	})
	defer reporter.Recover()

	rt, err := services.New(services.Options{
		Settings: settings,
		Version:  version,
		Logger:   logger,
		Reporter: reporter,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("kaspamon starting",
		zap.String("version", version),
		zap.String("mode", settings.Node.Mode),
		zap.Bool("headless", headless),
	)
	rt.Start(ctx)

	if headless {
		runHeadless(ctx, rt, logger, settings.UI.RefreshInterval, statusInterval)
	} else {
		err = runTUI(rt, settings, reporter)
	}

	if serr := rt.Shutdown(shutdownTimeout); serr != nil {
		logger.Warn("shutdown incomplete", zap.Error(serr))
	}
	return err
}

func runTUI(rt *services.Runtime, settings *config.Settings, reporter *crash.Reporter) error {
	if err := config.InitTheme(); err != nil {
		// Fall back to the default theme
		fmt.Fprintf(os.Stderr, "Warning: invalid skin.yaml: %v\n", err)
	}

	var node ui.NodeControl
	if sup := rt.Supervisor(); sup.Managed() {
		node = sup
	}
	p := newTUIProgram(ui.Options{
		State:           rt.Reconciler(),
		Notifications:   rt.Notifications(),
		Node:            node,
		Market:          rt.Market(),
		RefreshInterval: settings.UI.RefreshInterval,
		Animations:      settings.UI.Animations,
		Version:         version,
	}, reporter, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// newTUIProgram builds the bubbletea program with UI panics routed to the
// crash reporter. The terminal is released first so the report is readable.
func newTUIProgram(opts ui.Options, reporter *crash.Reporter, progOpts ...tea.ProgramOption) *tea.Program {
	relay := &panicRelay{reporter: reporter}
	opts.OnPanic = relay.handle
	relay.program = tea.NewProgram(ui.NewModel(opts), progOpts...)
	return relay.program
}

type panicRelay struct {
	program  *tea.Program
	reporter *crash.Reporter
}

func (r *panicRelay) handle(value any, stack []byte) {
	if r.program != nil {
		_ = r.program.ReleaseTerminal()
	}
	r.reporter.Handle(value, stack)
}

// runHeadless drives the reconciler without a UI: notifications become log
// records and a status line is logged on phase changes and every
// statusEvery.
func runHeadless(ctx context.Context, rt *services.Runtime, logger *zap.Logger, tick, statusEvery time.Duration) {
	if tick <= 0 {
		tick = ui.DefaultRefreshInterval
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	var (
		lastPhase  model.NodePhase = -1
		lastStatus time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rec := rt.Reconciler()
			rec.Tick()
			for _, n := range rt.Notifications().Drain() {
				logNotification(logger, n)
			}

			snap := rec.Snapshot()
			if snap.NodePhase != lastPhase || now.Sub(lastStatus) >= statusEvery {
				lastPhase = snap.NodePhase
				lastStatus = now
				logStatus(logger, snap)
			}
		}
	}
}

func logNotification(logger *zap.Logger, n model.Notification) {
	field := zap.String("kind", n.Kind.String())
	switch n.Kind {
	case model.NotifyError:
		logger.Error(n.Message, field)
	case model.NotifyWarning:
		logger.Warn(n.Message, field)
	default:
		logger.Info(n.Message, field)
	}
}

func logStatus(logger *zap.Logger, snap reconcile.Snapshot) {
	logger.Info("status", zap.String("summary", output.StatusLine(snap)))
}

// Execute runs the root command.
func Execute() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
