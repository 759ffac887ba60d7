// Package ui is the terminal front-end: a bubbletea model that renders the
// reconciled runtime state once per tick.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kostyay/kaspamon/internal/model"
	"github.com/kostyay/kaspamon/internal/notify"
	"github.com/kostyay/kaspamon/internal/reconcile"
)

// Refresh interval bounds.
const (
	MinRefreshInterval     = 100 * time.Millisecond
	MaxRefreshInterval     = 2 * time.Second
	DefaultRefreshInterval = 250 * time.Millisecond
	RefreshStep            = 50 * time.Millisecond
)

// maxToasts is how many notifications are on screen at once.
const maxToasts = 3

// StateSource is the reconciler as seen by the UI.
type StateSource interface {
	Tick() int
	Snapshot() reconcile.Snapshot
}

// NotificationSource hands over queued notifications.
type NotificationSource interface {
	Drain() []model.Notification
}

// NodeControl drives the node lifecycle.
type NodeControl interface {
	Managed() bool
	Restart(ctx context.Context) error
}

// MarketControl toggles market polling.
type MarketControl interface {
	Enabled() bool
	SetEnabled(enabled bool)
}

// Options configures the model.
type Options struct {
	State           StateSource
	Notifications   NotificationSource
	Node            NodeControl // nil hides node actions
	Market          MarketControl
	RefreshInterval time.Duration
	Animations      bool
	Version         string
	// OnPanic receives panics raised in Update, View and commands. It is
	// expected not to return. When nil the panic propagates to bubbletea.
	OnPanic func(value any, stack []byte)
}

// Model is the Bubble Tea model for the runtime monitor.
type Model struct {
	// Data
	state    StateSource
	notes    NotificationSource
	node     NodeControl
	market   MarketControl
	snapshot reconcile.Snapshot
	shelf    *notify.Shelf
	now      time.Time

	// UI State
	quitting       bool
	helpMode       bool
	restarting     bool
	animations     bool
	animationFrame int
	version        string
	onPanic        func(value any, stack []byte)

	// Configuration
	refreshInterval time.Duration

	// Dimensions
	width  int
	height int

	// Viewport for the node log
	viewport viewport.Model
	ready    bool // true after viewport initialized on first WindowSizeMsg
	logCount uint64
}

// NewModel creates a new Model.
func NewModel(opts Options) Model {
	interval := opts.RefreshInterval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return Model{
		state:           opts.State,
		notes:           opts.Notifications,
		node:            opts.Node,
		market:          opts.Market,
		shelf:           notify.NewShelf(maxToasts),
		refreshInterval: clampRefresh(interval),
		animations:      opts.Animations,
		version:         opts.Version,
		onPanic:         opts.OnPanic,
		now:             time.Now(),
	}
}

func clampRefresh(d time.Duration) time.Duration {
	return min(max(d, MinRefreshInterval), MaxRefreshInterval)
}

// Snapshot returns the state rendered by the last tick.
func (m Model) Snapshot() reconcile.Snapshot { return m.snapshot }

var _ tea.Model = Model{}
