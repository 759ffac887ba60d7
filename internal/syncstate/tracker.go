package syncstate

import (
	"sync"

	"go.uber.org/zap"

	"github.com/kostyay/kaspamon/internal/bus"
	"github.com/kostyay/kaspamon/internal/model"
)

// Snapshot is the tracker's view of the connection.
type Snapshot struct {
	Connected bool
	URL       string
	Synced    *bool
	SyncState *model.SyncState
	DaaScore  *uint64
}

// IsSynced applies the same predicate as model.State.IsSynced.
func (s Snapshot) IsSynced() bool {
	st := model.State{Synced: s.Synced, SyncState: s.SyncState}
	return st.IsSynced()
}

// Tracker owns the authoritative connection and sync state and publishes
// every change on the bus.
type Tracker struct {
	pub    bus.Publisher
	logger *zap.Logger

	mu   sync.Mutex
	snap Snapshot
}

// NewTracker creates a tracker publishing to pub.
func NewTracker(pub bus.Publisher, logger *zap.Logger) *Tracker {
	return &Tracker{pub: pub, logger: logger.Named("syncstate")}
}

// Connected records a successful handshake with url.
func (t *Tracker) Connected(url string) {
	t.mu.Lock()
	t.snap.Connected = true
	t.snap.URL = url
	t.mu.Unlock()

	t.logger.Info("rpc connected", zap.String("url", url))
	t.publish(model.Connected{URL: url})
}

// Disconnected records the loss of the RPC connection. Sync progress is kept
// so the UI can show where the node was.
func (t *Tracker) Disconnected() {
	t.mu.Lock()
	was := t.snap.Connected
	t.snap.Connected = false
	t.mu.Unlock()

	if was {
		t.logger.Info("rpc disconnected")
	}
	t.publish(model.Disconnected{})
}

// Handle applies one RPC notification.
func (t *Tracker) Handle(n Notification) {
	switch n := n.(type) {
	case ServerInfo:
		t.mu.Lock()
		t.snap.Synced = model.Ptr(n.IsSynced)
		if n.DaaScore > 0 {
			t.snap.DaaScore = model.Ptr(n.DaaScore)
		}
		t.mu.Unlock()

		t.publish(model.ServerInfo{Version: n.Version, Network: n.Network, IsSynced: n.IsSynced})
		if n.DaaScore > 0 {
			t.publish(model.DaaScoreUpdate{Score: n.DaaScore})
		}

	case SyncStateChanged:
		t.mu.Lock()
		state := n.State
		t.snap.SyncState = &state
		t.mu.Unlock()

		t.logger.Debug("sync state changed", zap.Stringer("phase", n.State.Phase))
		t.publish(model.SyncProgress{State: n.State})

	case DaaScoreChanged:
		t.mu.Lock()
		t.snap.DaaScore = model.Ptr(n.Score)
		t.mu.Unlock()
		t.publish(model.DaaScoreUpdate{Score: n.Score})

	case NetworkLoadChanged:
		t.publish(model.NetworkLoadUpdate{Load: n.Load})
	}
}

// Snapshot returns a copy of the current view.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := t.snap
	if t.snap.Synced != nil {
		out.Synced = model.Ptr(*t.snap.Synced)
	}
	if t.snap.SyncState != nil {
		out.SyncState = model.Ptr(*t.snap.SyncState)
	}
	if t.snap.DaaScore != nil {
		out.DaaScore = model.Ptr(*t.snap.DaaScore)
	}
	return out
}

func (t *Tracker) publish(ev model.Event) {
	if err := t.pub.Publish(ev); err != nil {
		t.logger.Debug("publish dropped", zap.Error(err))
	}
}
