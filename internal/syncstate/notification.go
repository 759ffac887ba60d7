// Package syncstate tracks the node connection and sync progress reported by
// the RPC client and republishes it as runtime events.
package syncstate

import "github.com/kostyay/kaspamon/internal/model"

// Notification is a message delivered by the node RPC client.
type Notification interface {
	isNotification()
}

// SyncStateChanged reports a new sync phase.
type SyncStateChanged struct {
	State model.SyncState
}

// DaaScoreChanged reports a new virtual DAA score.
type DaaScoreChanged struct {
	Score uint64
}

// NetworkLoadChanged reports the network load fraction.
type NetworkLoadChanged struct {
	Load float32
}

// ServerInfo is the node's answer to the connection handshake.
type ServerInfo struct {
	Version  string
	Network  model.NetworkID
	IsSynced bool
	DaaScore uint64
}

func (SyncStateChanged) isNotification()   {}
func (DaaScoreChanged) isNotification()    {}
func (NetworkLoadChanged) isNotification() {}
func (ServerInfo) isNotification()         {}
