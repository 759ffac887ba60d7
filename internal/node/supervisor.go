// Package node supervises the Kaspa node: it starts and stops the node
// process (local binary or docker container), keeps the RPC connection alive
// and turns node output and RPC notifications into runtime events.
package node

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kostyay/kaspamon/internal/bus"
	"github.com/kostyay/kaspamon/internal/logs"
	"github.com/kostyay/kaspamon/internal/model"
	"github.com/kostyay/kaspamon/internal/notify"
	"github.com/kostyay/kaspamon/internal/syncstate"
)

const (
	defaultReconnectInterval = 5 * time.Second
	defaultConnectTimeout    = 10 * time.Second
	defaultResourceInterval  = 5 * time.Second
	stopTimeout              = 15 * time.Second
)

// Sampler reads resource usage of a process.
type Sampler interface {
	Sample(ctx context.Context, pid int32) (model.NodeUsage, error)
}

// Options configures a Supervisor.
type Options struct {
	URL               string // RPC endpoint
	AutoStart         bool
	ConnectTimeout    time.Duration
	ReconnectInterval time.Duration
	ResourceInterval  time.Duration

	// Process is nil in remote mode.
	Process Process
	// Dial returns a fresh RPC client for one connection attempt.
	Dial    func() RPC
	Sampler Sampler

	Tracker   *syncstate.Tracker
	Publisher bus.Publisher
	// Notifications receives lifecycle notifications.
	Notifications notify.Pusher
	// LogNotifications receives warnings and errors found in node output.
	// It is usually rate limited.
	LogNotifications notify.Pusher

	PhaseGauge prometheus.Gauge
	Starts     *prometheus.CounterVec // label: result

	Logger *zap.Logger
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdStop
	cmdRestart
)

func (k commandKind) String() string {
	switch k {
	case cmdStop:
		return "stop"
	case cmdRestart:
		return "restart"
	default:
		return "start"
	}
}

type command struct {
	kind  commandKind
	reply chan error
}

// Supervisor owns the node lifecycle. All state transitions happen on the
// Run goroutine; the public methods send commands to it.
type Supervisor struct {
	opts   Options
	logger *zap.Logger
	cmds   chan command

	mu       sync.Mutex
	phase    model.NodePhase
	exitCode *int

	// Owned by the Run goroutine.
	running  bool
	stopping bool
	exitCh   <-chan int
	rpc      RPC
	notesCh  <-chan syncstate.Notification
}

// New creates a Supervisor.
func New(opts Options) *Supervisor {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = defaultReconnectInterval
	}
	if opts.ResourceInterval <= 0 {
		opts.ResourceInterval = defaultResourceInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.LogNotifications == nil {
		opts.LogNotifications = opts.Notifications
	}
	return &Supervisor{
		opts:   opts,
		logger: opts.Logger.Named("node"),
		cmds:   make(chan command),
	}
}

// Name identifies the service in logs.
func (s *Supervisor) Name() string { return "node" }

// Managed reports whether the supervisor controls a node process.
func (s *Supervisor) Managed() bool { return s.opts.Process != nil }

// Phase returns the current lifecycle phase.
func (s *Supervisor) Phase() model.NodePhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// ExitCode returns the last exit code of the node process, if any.
func (s *Supervisor) ExitCode() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exitCode == nil {
		return 0, false
	}
	return *s.exitCode, true
}

// Start launches the node. Startup errors wrap ErrStartup.
func (s *Supervisor) Start(ctx context.Context) error { return s.send(ctx, cmdStart) }

// Stop terminates the node.
func (s *Supervisor) Stop(ctx context.Context) error { return s.send(ctx, cmdStop) }

// Restart stops the node if it is running and starts it again.
func (s *Supervisor) Restart(ctx context.Context) error { return s.send(ctx, cmdRestart) }

func (s *Supervisor) send(ctx context.Context, kind commandKind) error {
	if !s.Managed() {
		return ErrUnmanaged
	}
	cmd := command{kind: kind, reply: make(chan error, 1)}
	select {
	case s.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the node until ctx is cancelled. A managed node is stopped on
// the way out.
func (s *Supervisor) Run(ctx context.Context) error {
	s.publishPhase()

	if s.Managed() && s.opts.AutoStart {
		// The error is already logged and notified.
		_ = s.start(ctx)
	}
	if s.shouldConnect() {
		s.connect(ctx)
	}

	reconnect := time.NewTicker(s.opts.ReconnectInterval)
	defer reconnect.Stop()
	resources := time.NewTicker(s.opts.ResourceInterval)
	defer resources.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil

		case cmd := <-s.cmds:
			cmd.reply <- s.handle(ctx, cmd.kind)

		case code, ok := <-s.exitCh:
			s.exitCh = nil
			if ok {
				s.exited(code)
			}

		case n, ok := <-s.notesCh:
			if !ok {
				s.connectionLost()
				continue
			}
			s.opts.Tracker.Handle(n)
			s.updateSyncPhase()

		case <-reconnect.C:
			if s.rpc == nil && s.shouldConnect() {
				s.connect(ctx)
			}

		case <-resources.C:
			s.sample(ctx)
		}
	}
}

func (s *Supervisor) handle(ctx context.Context, kind commandKind) error {
	s.logger.Info("node command", zap.Stringer("command", kind))
	switch kind {
	case cmdStop:
		return s.stop()
	case cmdRestart:
		if err := s.stop(); err != nil && !errors.Is(err, ErrNotRunning) {
			return err
		}
		return s.start(ctx)
	default:
		return s.start(ctx)
	}
}

func (s *Supervisor) start(ctx context.Context) error {
	if s.running {
		return nil
	}
	s.setPhase(model.PhaseStarting)

	exitCh, err := s.opts.Process.Start(ctx, s.handleLine)
	if err != nil {
		s.countStart("error")
		err = fmt.Errorf("%w: %w", ErrStartup, err)
		s.logger.Error("node failed to start", zap.Error(err))
		s.notify(model.ErrorNotification("Failed to start node: " + err.Error()))
		s.setPhase(model.PhaseNotStarted)
		return err
	}

	s.countStart("ok")
	s.running = true
	s.stopping = false
	s.exitCh = exitCh
	s.logger.Info("node started", zap.Int32("pid", s.opts.Process.PID()))
	s.notify(model.InfoNotification("Node started").Short())

	s.connect(ctx)
	return nil
}

func (s *Supervisor) stop() error {
	if !s.running {
		return ErrNotRunning
	}
	s.stopping = true
	s.disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := s.opts.Process.Stop(ctx); err != nil && !errors.Is(err, ErrNotRunning) {
		s.logger.Warn("node stop failed", zap.Error(err))
	}

	if s.exitCh != nil {
		select {
		case code, ok := <-s.exitCh:
			if ok {
				s.exited(code)
			}
		case <-ctx.Done():
			s.logger.Warn("node did not report exit")
			s.running = false
			s.setPhase(model.PhaseExited)
		}
		s.exitCh = nil
	}
	return nil
}

func (s *Supervisor) exited(code int) {
	s.running = false
	s.disconnect()

	s.mu.Lock()
	s.exitCode = &code
	s.mu.Unlock()

	s.publish(model.NodeExited{Code: code})
	s.setPhase(model.PhaseExited)

	if s.stopping {
		s.logger.Info("node stopped", zap.Int("code", code))
		s.notify(model.InfoNotification("Node stopped").Short())
	} else {
		s.logger.Error("node exited", zap.Int("code", code))
		s.notify(model.ErrorNotification(fmt.Sprintf("Node exited with code %d", code)))
	}
	s.stopping = false
}

func (s *Supervisor) shutdown() {
	s.disconnect()
	if s.running {
		if err := s.stop(); err != nil {
			s.logger.Warn("node shutdown", zap.Error(err))
		}
	}
}

func (s *Supervisor) shouldConnect() bool {
	if s.opts.Dial == nil {
		return false
	}
	return !s.Managed() || s.running
}

func (s *Supervisor) connect(ctx context.Context) {
	if s.rpc != nil || s.opts.Dial == nil {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, s.opts.ConnectTimeout)
	defer cancel()

	client := s.opts.Dial()
	info, err := client.Connect(cctx)
	if err != nil {
		_ = client.Close()
		s.logger.Debug("rpc connect failed", zap.String("url", s.opts.URL), zap.Error(err))
		return
	}

	s.rpc = client
	s.notesCh = client.Notifications()
	s.opts.Tracker.Connected(s.opts.URL)
	s.opts.Tracker.Handle(info)
	s.setPhase(model.PhaseConnected)
	s.updateSyncPhase()
}

// disconnect closes the RPC connection without changing the phase.
func (s *Supervisor) disconnect() {
	if s.rpc == nil {
		return
	}
	_ = s.rpc.Close()
	s.rpc = nil
	s.notesCh = nil
	s.opts.Tracker.Disconnected()
}

func (s *Supervisor) connectionLost() {
	s.rpc = nil
	s.notesCh = nil
	s.opts.Tracker.Disconnected()
	s.setPhase(model.PhaseDisconnected)
	s.logger.Warn("rpc connection lost, reconnecting", zap.Duration("interval", s.opts.ReconnectInterval))
}

func (s *Supervisor) updateSyncPhase() {
	if s.rpc == nil {
		return
	}
	snap := s.opts.Tracker.Snapshot()
	switch {
	case snap.IsSynced():
		s.setPhase(model.PhaseSynced)
	case snap.SyncState != nil:
		s.setPhase(model.PhaseSyncing)
	default:
		s.setPhase(model.PhaseConnected)
	}
}

func (s *Supervisor) sample(ctx context.Context) {
	if !s.running || s.opts.Sampler == nil {
		return
	}
	pid := s.opts.Process.PID()
	if pid == 0 {
		return
	}
	usage, err := s.opts.Sampler.Sample(ctx, pid)
	if err != nil {
		s.logger.Debug("resource sample failed", zap.Int32("pid", pid), zap.Error(err))
		return
	}
	s.publish(model.NodeResources{Usage: usage})
}

// handleLine runs on the process output goroutine.
func (s *Supervisor) handleLine(line string) {
	rec := logs.Classify(line)
	s.publish(model.NodeLog{Record: rec})

	if s.opts.LogNotifications == nil {
		return
	}
	switch rec.Severity {
	case model.SeverityWarning:
		s.opts.LogNotifications.Push(model.WarningNotification(strings.TrimSpace(rec.Text)))
	case model.SeverityError:
		s.opts.LogNotifications.Push(model.ErrorNotification(strings.TrimSpace(rec.Text)))
	}
}

func (s *Supervisor) setPhase(p model.NodePhase) {
	s.mu.Lock()
	if s.phase == p {
		s.mu.Unlock()
		return
	}
	prev := s.phase
	s.phase = p
	s.mu.Unlock()

	s.logger.Debug("node phase", zap.Stringer("from", prev), zap.Stringer("to", p))
	s.publishPhase()
}

func (s *Supervisor) publishPhase() {
	p := s.Phase()
	if s.opts.PhaseGauge != nil {
		s.opts.PhaseGauge.Set(float64(p))
	}
	s.publish(model.NodeStatus{Phase: p})
}

func (s *Supervisor) countStart(result string) {
	if s.opts.Starts != nil {
		s.opts.Starts.WithLabelValues(result).Inc()
	}
}

func (s *Supervisor) notify(n model.Notification) {
	if s.opts.Notifications != nil {
		s.opts.Notifications.Push(n)
	}
}

func (s *Supervisor) publish(ev model.Event) {
	if err := s.opts.Publisher.Publish(ev); err != nil {
		s.logger.Debug("publish dropped", zap.Error(err))
	}
}
