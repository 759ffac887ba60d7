package market

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kostyay/kaspamon/internal/bus"
	"github.com/kostyay/kaspamon/internal/config"
	"github.com/kostyay/kaspamon/internal/model"
	"github.com/kostyay/kaspamon/internal/notify"
)

// DefaultInterval is the poll interval when none is configured.
const DefaultInterval = 60 * time.Second

// Option configures a Service.
type Option func(*Service)

// WithFetchCounter counts polls by result ("ok", "network", "status", "decode").
func WithFetchCounter(c *prometheus.CounterVec) Option {
	return func(s *Service) { s.fetches = c }
}

// WithLatency observes poll latency in seconds.
func WithLatency(o prometheus.Observer) Option {
	return func(s *Service) { s.latency = o }
}

// Service polls the market API on an interval and publishes the results.
// The last successful price map stays available across failures.
type Service struct {
	client   *Client
	pub      bus.Publisher
	notes    notify.Pusher
	logger   *zap.Logger
	interval time.Duration

	mu         sync.Mutex
	enabled    bool
	currencies []string
	last       model.CurrencyPriceMap
	lastErr    error

	wake chan struct{}

	fetches *prometheus.CounterVec
	latency prometheus.Observer
}

// NewService creates the market poller.
func NewService(client *Client, cfg config.MarketSettings, pub bus.Publisher, notes notify.Pusher, logger *zap.Logger, opts ...Option) *Service {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Service{
		client:     client,
		pub:        pub,
		notes:      notes,
		logger:     logger.Named("market"),
		interval:   interval,
		enabled:    cfg.Enabled,
		currencies: normalize(cfg.Currencies),
		wake:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name identifies the service in logs.
func (s *Service) Name() string { return "market" }

// Run polls immediately when enabled, then on every interval tick, until ctx
// is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if s.Enabled() {
		s.poll(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if s.Enabled() {
				s.poll(ctx)
			}
		case <-s.wake:
			if s.Enabled() {
				s.poll(ctx)
				ticker.Reset(s.interval)
			}
		}
	}
}

// SetEnabled toggles polling. Enabling triggers an immediate poll.
func (s *Service) SetEnabled(enabled bool) {
	s.mu.Lock()
	was := s.enabled
	s.enabled = enabled
	s.mu.Unlock()

	if enabled && !was {
		s.trigger()
	}
	s.logger.Info("market polling toggled", zap.Bool("enabled", enabled))
}

// Enabled reports whether polling is active.
func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetCurrencies replaces the quote currencies and triggers a poll.
func (s *Service) SetCurrencies(currencies []string) {
	s.mu.Lock()
	s.currencies = normalize(currencies)
	s.mu.Unlock()
	s.trigger()
}

// Currencies returns the configured quote currencies.
func (s *Service) Currencies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.currencies...)
}

// Last returns a copy of the last successfully fetched map, or nil.
func (s *Service) Last() model.CurrencyPriceMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last.Clone()
}

// LastError returns the error of the most recent poll, nil after a success.
func (s *Service) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Poll fetches once and publishes the outcome.
func (s *Service) Poll(ctx context.Context) (model.CurrencyPriceMap, error) {
	return s.poll(ctx)
}

func (s *Service) poll(ctx context.Context) (model.CurrencyPriceMap, error) {
	currencies := s.Currencies()

	start := time.Now()
	prices, err := s.client.Prices(ctx, currencies)
	if s.latency != nil {
		s.latency.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		s.record(resultLabel(err))
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()

		if ctx.Err() != nil {
			// Shutting down; nothing to report.
			return nil, err
		}
		s.logger.Warn("market fetch failed", zap.Error(err), zap.Strings("currencies", currencies))
		s.publish(model.MarketFetchFailed{Reason: err.Error()})
		if s.notes != nil {
			s.notes.Push(model.WarningNotification("Market data unavailable: " + err.Error()).Short())
		}
		return nil, err
	}

	s.record("ok")
	s.mu.Lock()
	s.last = prices
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Debug("market data updated", zap.Int("currencies", len(prices)))
	s.publish(model.MarketData{Prices: prices.Clone()})
	return prices.Clone(), nil
}

func (s *Service) publish(ev model.Event) {
	if err := s.pub.Publish(ev); err != nil {
		s.logger.Debug("publish dropped", zap.Error(err))
	}
}

func (s *Service) record(result string) {
	if s.fetches != nil {
		s.fetches.WithLabelValues(result).Inc()
	}
}

func (s *Service) trigger() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func resultLabel(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind.String()
	}
	return "network"
}

func normalize(currencies []string) []string {
	out := make([]string, 0, len(currencies))
	seen := make(map[string]bool, len(currencies))
	for _, c := range currencies {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
