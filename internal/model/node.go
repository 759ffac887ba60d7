package model

import (
	"fmt"
	"time"
)

// NodePhase is the supervisor's view of the node lifecycle.
type NodePhase int

const (
	PhaseNotStarted NodePhase = iota
	PhaseStarting
	PhaseConnected
	PhaseSyncing
	PhaseSynced
	PhaseDisconnected
	PhaseExited
)

// String returns a human-readable name for the NodePhase.
func (p NodePhase) String() string {
	switch p {
	case PhaseNotStarted:
		return "Not started"
	case PhaseStarting:
		return "Starting"
	case PhaseConnected:
		return "Connected"
	case PhaseSyncing:
		return "Syncing"
	case PhaseSynced:
		return "Synced"
	case PhaseDisconnected:
		return "Disconnected"
	case PhaseExited:
		return "Exited"
	default:
		return fmt.Sprintf("NodePhase(%d)", int(p))
	}
}

// NodeUsage is a resource sample of the node process.
type NodeUsage struct {
	PID        int32
	CPUPercent float64
	RSSBytes   uint64
	Peers      int    // Established TCP connections
	RecvBytes  uint64 // Network bytes received, 0 when unknown
	SentBytes  uint64 // Network bytes sent, 0 when unknown
	SampledAt  time.Time
}

// Release describes a published application release.
type Release struct {
	Version string
	URL     string
	// PublishedAt is zero when the API did not report it.
	PublishedAt time.Time
}
