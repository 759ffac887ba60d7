// Package reconcile folds runtime events into the state the UI renders.
package reconcile

import (
	"sync"

	"github.com/kostyay/kaspamon/internal/logs"
	"github.com/kostyay/kaspamon/internal/model"
)

// Source yields queued events. *bus.Bus satisfies it.
type Source interface {
	Drain() []model.Event
}

// Snapshot is a deep copy of everything the reconciler owns.
type Snapshot struct {
	State       model.State
	Prices      model.CurrencyPriceMap
	MarketError string // Reason of the last failed poll, cleared by new data
	NodePhase   model.NodePhase
	ExitCode    *int
	Resources   *model.NodeUsage
	Release     *model.Release
	Logs        []model.LogRecord
	LogTotal    uint64
}

// Reconciler owns the canonical State. It is the only consumer of the bus.
type Reconciler struct {
	source Source

	mu          sync.RWMutex
	state       model.State
	prices      model.CurrencyPriceMap
	marketError string
	phase       model.NodePhase
	exitCode    *int
	resources   *model.NodeUsage
	release     *model.Release
	ring        *logs.Ring
}

// New creates a reconciler draining source. The log ring keeps ringCapacity
// records and trims ringMargin at a time.
func New(source Source, ringCapacity, ringMargin int) *Reconciler {
	return &Reconciler{
		source: source,
		ring:   logs.NewRing(ringCapacity, ringMargin),
	}
}

// Tick drains the source once and applies the events in order. It returns
// the number of events applied and never blocks.
func (r *Reconciler) Tick() int {
	events := r.source.Drain()
	if len(events) == 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range events {
		r.apply(ev)
	}
	return len(events)
}

// Apply applies a single event.
func (r *Reconciler) Apply(ev model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apply(ev)
}

func (r *Reconciler) apply(ev model.Event) {
	switch ev := ev.(type) {
	case model.Connected:
		r.state.IsConnected = true
		r.state.URL = model.Ptr(ev.URL)
	case model.Disconnected:
		r.state.IsConnected = false
	case model.SyncProgress:
		r.state.SyncState = model.Ptr(ev.State)
	case model.DaaScoreUpdate:
		r.state.CurrentDaaScore = model.Ptr(ev.Score)
	case model.NetworkLoadUpdate:
		r.state.NetworkLoad = model.Ptr(ev.Load)
	case model.ServerInfo:
		r.state.ServerVersion = model.Ptr(ev.Version)
		r.state.NetworkID = model.Ptr(ev.Network)
		r.state.Synced = model.Ptr(ev.IsSynced)
	case model.WalletOpened:
		r.state.IsOpen = ev.Open
	case model.MarketData:
		r.prices = ev.Prices.Clone()
		r.marketError = ""
	case model.MarketFetchFailed:
		r.marketError = ev.Reason
	case model.NodeLog:
		r.ring.Push(ev.Record)
	case model.NodeExited:
		r.exitCode = model.Ptr(ev.Code)
	case model.NodeStatus:
		r.phase = ev.Phase
	case model.NodeResources:
		r.resources = model.Ptr(ev.Usage)
	case model.VersionAvailable:
		r.release = model.Ptr(ev.Release)
	}
}

// State returns a copy of the canonical state.
func (r *Reconciler) State() model.State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Clone()
}

// Snapshot returns a deep copy of the reconciled view.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{
		State:       r.state.Clone(),
		Prices:      r.prices.Clone(),
		MarketError: r.marketError,
		NodePhase:   r.phase,
		Logs:        r.ring.Records(),
		LogTotal:    r.ring.Total(),
	}
	if r.exitCode != nil {
		snap.ExitCode = model.Ptr(*r.exitCode)
	}
	if r.resources != nil {
		snap.Resources = model.Ptr(*r.resources)
	}
	if r.release != nil {
		snap.Release = model.Ptr(*r.release)
	}
	return snap
}
