package release

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kostyay/kaspamon/internal/bus"
	"github.com/kostyay/kaspamon/internal/model"
	"github.com/kostyay/kaspamon/internal/notify"
)

// DefaultInterval is how often the monitor checks for releases.
const DefaultInterval = 12 * time.Hour

// Monitor periodically checks for a newer release and announces each new
// tag once.
type Monitor struct {
	Checker  *Checker
	Owner    string
	Repo     string
	Current  string
	Interval time.Duration

	Publisher     bus.Publisher
	Notifications notify.Pusher
	Logger        *zap.Logger

	announced string
}

// Name identifies the service in logs.
func (m *Monitor) Name() string { return "release" }

// Run checks immediately and then every Interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	interval := m.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	logger := m.logger()
	rel, err := m.Checker.CheckLatest(ctx, m.Owner, m.Repo, m.Current)
	if err != nil {
		if ctx.Err() == nil {
			logger.Debug("release check failed", zap.Error(err))
		}
		return
	}
	if rel == nil || rel.Version == m.announced {
		return
	}
	m.announced = rel.Version

	logger.Info("new release available", zap.String("version", rel.Version))
	if err := m.Publisher.Publish(model.VersionAvailable{Release: *rel}); err != nil {
		logger.Debug("publish dropped", zap.Error(err))
	}
	if m.Notifications != nil {
		m.Notifications.Push(model.InfoNotification("kaspamon " + rel.Version + " is available").WithClosable())
	}
}

func (m *Monitor) logger() *zap.Logger {
	if m.Logger == nil {
		return zap.NewNop()
	}
	return m.Logger.Named("release")
}
