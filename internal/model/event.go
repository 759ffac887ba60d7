package model

// Event is a runtime event published by a service and applied by the
// reconciler. Events are values; producers must not mutate them after
// publishing.
type Event interface {
	isEvent()
}

// Connected is published after a successful RPC handshake.
type Connected struct {
	URL string
}

// Disconnected is published when the RPC connection is lost.
type Disconnected struct{}

// SyncProgress carries a new sync phase.
type SyncProgress struct {
	State SyncState
}

// DaaScoreUpdate carries the latest virtual DAA score.
type DaaScoreUpdate struct {
	Score uint64
}

// NetworkLoadUpdate carries the latest network load fraction.
type NetworkLoadUpdate struct {
	Load float32
}

// MarketData carries a freshly fetched price map.
type MarketData struct {
	Prices CurrencyPriceMap
}

// MarketFetchFailed reports a failed market poll.
type MarketFetchFailed struct {
	Reason string
}

// NodeLog carries one classified line of node output.
type NodeLog struct {
	Record LogRecord
}

// NodeExited reports that the managed node process terminated.
type NodeExited struct {
	Code int
}

// ServerInfo carries the node's self description from the handshake.
type ServerInfo struct {
	Version  string
	Network  NetworkID
	IsSynced bool
}

// WalletOpened reports the wallet open/close state.
type WalletOpened struct {
	Open bool
}

// NodeStatus reports a supervisor lifecycle transition.
type NodeStatus struct {
	Phase NodePhase
}

// NodeResources carries a resource sample of the node process.
type NodeResources struct {
	Usage NodeUsage
}

// VersionAvailable reports a newer application release.
type VersionAvailable struct {
	Release Release
}

func (Connected) isEvent()         {}
func (Disconnected) isEvent()      {}
func (SyncProgress) isEvent()      {}
func (DaaScoreUpdate) isEvent()    {}
func (NetworkLoadUpdate) isEvent() {}
func (MarketData) isEvent()        {}
func (MarketFetchFailed) isEvent() {}
func (NodeLog) isEvent()           {}
func (NodeExited) isEvent()        {}
func (ServerInfo) isEvent()        {}
func (WalletOpened) isEvent()      {}
func (NodeStatus) isEvent()        {}
func (NodeResources) isEvent()     {}
func (VersionAvailable) isEvent()  {}
