// Package services wires the background services into one runtime and runs
// each of them on its own crash-protected goroutine.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kostyay/kaspamon/internal/bus"
	"github.com/kostyay/kaspamon/internal/collector"
	"github.com/kostyay/kaspamon/internal/config"
	"github.com/kostyay/kaspamon/internal/crash"
	"github.com/kostyay/kaspamon/internal/docker"
	"github.com/kostyay/kaspamon/internal/logs"
	"github.com/kostyay/kaspamon/internal/market"
	"github.com/kostyay/kaspamon/internal/metrics"
	"github.com/kostyay/kaspamon/internal/model"
	"github.com/kostyay/kaspamon/internal/node"
	"github.com/kostyay/kaspamon/internal/notify"
	"github.com/kostyay/kaspamon/internal/process"
	"github.com/kostyay/kaspamon/internal/reconcile"
	"github.com/kostyay/kaspamon/internal/release"
	"github.com/kostyay/kaspamon/internal/syncstate"
)

const (
	// containerStopTimeout is handed to the docker daemon before it
	// escalates to SIGKILL.
	containerStopTimeout = 10
)

// Service is a long running background task.
type Service interface {
	Name() string
	// Run blocks until ctx is cancelled or the service fails.
	Run(ctx context.Context) error
}

// Options configures a Runtime. Zero-valued seams get production defaults.
type Options struct {
	Settings *config.Settings
	Version  string
	Logger   *zap.Logger
	// Reporter guards service goroutines. Nil runs them unguarded.
	Reporter *crash.Reporter

	HTTPClient *http.Client
	// Process overrides the backend selected by node.mode.
	Process node.Process
	Dial    func() node.RPC
	Sampler node.Sampler
}

// Runtime owns the bus, the notification queue and every service.
type Runtime struct {
	settings *config.Settings
	logger   *zap.Logger
	reporter *crash.Reporter

	metrics    *metrics.Metrics
	bus        *bus.Bus
	queue      *notify.Queue
	limiter    *notify.Limiter
	tracker    *syncstate.Tracker
	reconciler *reconcile.Reconciler
	supervisor *node.Supervisor
	market     *market.Service
	client     *market.Client

	services []Service

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds every component from opts.Settings. Nothing runs until Start.
func New(opts Options) (*Runtime, error) {
	s := opts.Settings
	if s == nil {
		s = config.DefaultSettings()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	m := metrics.New()
	r := &Runtime{
		settings: s,
		logger:   logger,
		reporter: opts.Reporter,
		metrics:  m,
	}

	r.bus = bus.New(s.Bus.Capacity,
		bus.WithPublishedCounter(m.BusPublished),
		bus.WithOverflowCounter(m.BusOverflow),
		bus.WithDepthGauge(m.BusDepth),
	)
	pub := r.bus.Publisher()
	r.queue = notify.NewQueue(s.Notifications.Capacity, m.NotificationsDropped)
	r.limiter = notify.NewLimiter(r.queue, s.Notifications.RatePerSecond, s.Notifications.Burst)
	r.tracker = syncstate.NewTracker(pub, logger)
	r.reconciler = reconcile.New(r.bus, s.UI.LogLines, logs.DefaultRingMargin)

	proc := opts.Process
	if proc == nil {
		var err error
		proc, err = newProcess(s.Node)
		if err != nil {
			return nil, err
		}
	}
	dial := opts.Dial
	if dial == nil {
		url, timeout := s.Node.RPCURL, s.Node.ConnectTimeout
		dial = func() node.RPC { return node.NewWRPCClient(url, timeout, logger) }
	}
	sampler := opts.Sampler
	if sampler == nil {
		sampler = collector.New()
	}

	r.supervisor = node.New(node.Options{
		URL:               s.Node.RPCURL,
		AutoStart:         s.Node.AutoStart,
		ConnectTimeout:    s.Node.ConnectTimeout,
		ReconnectInterval: s.Node.ReconnectInterval,
		ResourceInterval:  s.Node.ResourceInterval,
		Process:           proc,
		Dial:              dial,
		Sampler:           sampler,
		Tracker:           r.tracker,
		Publisher:         pub,
		Notifications:     r.queue,
		LogNotifications:  r.limiter,
		PhaseGauge:        m.NodePhase,
		Starts:            m.NodeStarts,
		Logger:            logger,
	})

	r.client = market.NewClient(s.Market, httpClient)
	r.market = market.NewService(r.client, s.Market, pub, r.queue, logger,
		market.WithFetchCounter(m.MarketFetches),
		market.WithLatency(m.MarketLatency),
	)

	r.services = []Service{r.supervisor, r.market}
	if s.Updates.Enabled {
		r.services = append(r.services, &release.Monitor{
			Checker:       &release.Checker{Client: httpClient},
			Owner:         s.Updates.Owner,
			Repo:          s.Updates.Repo,
			Current:       opts.Version,
			Interval:      s.Updates.Interval,
			Publisher:     pub,
			Notifications: r.queue,
			Logger:        logger,
		})
	}
	if s.Metrics.Listen != "" {
		r.services = append(r.services, &metricsService{metrics: m, addr: s.Metrics.Listen, logger: logger})
	}
	return r, nil
}

// newProcess selects the node backend for the configured mode. Remote mode
// has no process.
func newProcess(cfg config.NodeSettings) (node.Process, error) {
	switch cfg.Mode {
	case config.ModeRemote:
		return nil, nil
	case config.ModeLocal, config.ModeContainer:
	default:
		return nil, fmt.Errorf("unknown node mode %q", cfg.Mode)
	}

	sig, err := process.ParseSignal(cfg.TerminationSignal)
	if err != nil {
		return nil, err
	}
	if cfg.Mode == config.ModeLocal {
		return node.NewDaemon(cfg.Binary, cfg.Args, sig), nil
	}
	return docker.NewContainer(cfg.Container, process.SignalName(sig), containerStopTimeout), nil
}

// Register adds a service. It must be called before Start.
func (r *Runtime) Register(svc Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services = append(r.services, svc)
}

// Start launches every service. Calling it twice is a no-op.
func (r *Runtime) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	ctx, r.cancel = context.WithCancel(ctx)
	for _, svc := range r.services {
		r.wg.Add(1)
		r.spawn(func() {
			defer r.wg.Done()
			r.run(ctx, svc)
		})
	}
	r.logger.Info("runtime started", zap.Int("services", len(r.services)))
}

func (r *Runtime) spawn(fn func()) {
	if r.reporter != nil {
		r.reporter.Go(fn)
		return
	}
	go fn()
}

func (r *Runtime) run(ctx context.Context, svc Service) {
	logger := r.logger.With(zap.String("service", svc.Name()))
	logger.Debug("service started")

	err := svc.Run(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		logger.Debug("service stopped")
	default:
		logger.Error("service failed", zap.Error(err))
		r.queue.Push(model.ErrorNotification(fmt.Sprintf("%s service failed: %v", svc.Name(), err)).Sticky())
	}
}

// Shutdown cancels all services and waits up to timeout for them to return.
// The bus is closed either way.
func (r *Runtime) Shutdown(timeout time.Duration) error {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	defer r.bus.Close()
	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("runtime stopped")
		return nil
	case <-time.After(timeout):
		r.logger.Warn("runtime shutdown timed out", zap.Duration("timeout", timeout))
		return fmt.Errorf("shutdown timed out after %s", timeout)
	}
}

// Reconciler returns the state reconciler.
func (r *Runtime) Reconciler() *reconcile.Reconciler { return r.reconciler }

// Notifications returns the notification queue.
func (r *Runtime) Notifications() *notify.Queue { return r.queue }

// Supervisor returns the node supervisor.
func (r *Runtime) Supervisor() *node.Supervisor { return r.supervisor }

// Market returns the market data service.
func (r *Runtime) Market() *market.Service { return r.market }

// MarketClient returns the HTTP client used by the market service.
func (r *Runtime) MarketClient() *market.Client { return r.client }

// Bus returns the event bus.
func (r *Runtime) Bus() *bus.Bus { return r.bus }

// Publisher returns a producer handle for collaborators outside the runtime,
// such as the wallet reporting WalletOpened.
func (r *Runtime) Publisher() bus.Publisher { return r.bus.Publisher() }

// Tracker returns the sync state tracker.
func (r *Runtime) Tracker() *syncstate.Tracker { return r.tracker }

// Metrics returns the prometheus collectors.
func (r *Runtime) Metrics() *metrics.Metrics { return r.metrics }

// Settings returns the settings the runtime was built from.
func (r *Runtime) Settings() *config.Settings { return r.settings }

type metricsService struct {
	metrics *metrics.Metrics
	addr    string
	logger  *zap.Logger
}

func (s *metricsService) Name() string { return "metrics" }

func (s *metricsService) Run(ctx context.Context) error {
	return s.metrics.Serve(ctx, s.addr, s.logger.Named("metrics"))
}
