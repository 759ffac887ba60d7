package model

import "fmt"

// NetworkID identifies the Kaspa network a node is serving.
type NetworkID string

const (
	NetworkMainnet   NetworkID = "mainnet"
	NetworkTestnet10 NetworkID = "testnet-10"
	NetworkTestnet11 NetworkID = "testnet-11"
)

// ParseNetworkID validates a network identifier string.
func ParseNetworkID(s string) (NetworkID, error) {
	switch id := NetworkID(s); id {
	case NetworkMainnet, NetworkTestnet10, NetworkTestnet11:
		return id, nil
	default:
		return "", fmt.Errorf("unknown network id %q", s)
	}
}

// State is the canonical snapshot consumed by the UI.
// It is owned by the reconciler; everyone else sees copies.
type State struct {
	IsOpen          bool       // Wallet is open
	IsConnected     bool       // RPC connection is up
	Synced          *bool      // Explicit synced flag reported by the node
	SyncState       *SyncState // Last sync phase reported by the wallet
	ServerVersion   *string    // Node software version
	URL             *string    // RPC endpoint of the connected node
	NetworkID       *NetworkID // Network the node serves
	CurrentDaaScore *uint64    // Last observed virtual DAA score
	NetworkLoad     *float32   // Network load fraction
}

// IsSynced reports whether either sync signal says the node is synced.
// The flag and the sync phase may disagree for a while; this is the only
// read callers should trust.
func (s State) IsSynced() bool {
	if s.Synced != nil && *s.Synced {
		return true
	}
	return s.SyncState != nil && s.SyncState.Phase == SyncPhaseSynced
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.Synced = clonePtr(s.Synced)
	out.SyncState = clonePtr(s.SyncState)
	out.ServerVersion = clonePtr(s.ServerVersion)
	out.URL = clonePtr(s.URL)
	out.NetworkID = clonePtr(s.NetworkID)
	out.CurrentDaaScore = clonePtr(s.CurrentDaaScore)
	out.NetworkLoad = clonePtr(s.NetworkLoad)
	return out
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
