package model

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// SyncPhase is the wallet/node synchronization phase.
type SyncPhase int

const (
	SyncPhaseNotSynced SyncPhase = iota
	SyncPhaseProof
	SyncPhaseHeaders
	SyncPhaseBlocks
	SyncPhaseTrustSync
	SyncPhaseUtxoSync
	SyncPhaseUtxoResync
	SyncPhaseSynced
)

// String returns the wire name of the phase.
func (p SyncPhase) String() string {
	switch p {
	case SyncPhaseNotSynced:
		return "not-synced"
	case SyncPhaseProof:
		return "proof"
	case SyncPhaseHeaders:
		return "headers"
	case SyncPhaseBlocks:
		return "blocks"
	case SyncPhaseTrustSync:
		return "trust-sync"
	case SyncPhaseUtxoSync:
		return "utxo-sync"
	case SyncPhaseUtxoResync:
		return "utxo-resync"
	case SyncPhaseSynced:
		return "synced"
	default:
		return fmt.Sprintf("SyncPhase(%d)", int(p))
	}
}

// ParseSyncPhase maps a wire name back to a SyncPhase.
func ParseSyncPhase(s string) (SyncPhase, error) {
	for p := SyncPhaseNotSynced; p <= SyncPhaseSynced; p++ {
		if p.String() == s {
			return p, nil
		}
	}
	return SyncPhaseNotSynced, fmt.Errorf("unknown sync phase %q", s)
}

// SyncState describes one sync progress report.
// Only the fields relevant to the phase are set.
type SyncState struct {
	Phase     SyncPhase
	Level     uint64  // Proof level
	Processed uint64  // Headers, blocks or trust entries processed
	Total     uint64  // Total trust or UTXO entries
	Progress  float64 // Percent (0..100) reported for headers/blocks
}

// Caption returns the short status line shown while syncing.
func (s SyncState) Caption() string {
	switch s.Phase {
	case SyncPhaseProof:
		if s.Level == 0 {
			return "Syncing Proof..."
		}
		return "Syncing Proof " + humanize.Comma(int64(s.Level))
	case SyncPhaseHeaders:
		return "Syncing Headers..."
	case SyncPhaseBlocks:
		return "Syncing DAG Blocks..."
	case SyncPhaseTrustSync:
		return "Syncing DAG Trust..."
	case SyncPhaseUtxoSync:
		return "Syncing UTXO entries..."
	case SyncPhaseSynced:
		return "Ready..."
	default:
		return "Syncing..."
	}
}

// Percent returns the progress as a fraction in [0,1].
// ok is false for phases that have no progress bar.
func (s SyncState) Percent() (fraction float64, ok bool) {
	switch s.Phase {
	case SyncPhaseHeaders, SyncPhaseBlocks:
		return clampFraction(s.Progress / 100), true
	case SyncPhaseTrustSync:
		if s.Total == 0 {
			return 0, true
		}
		return clampFraction(float64(s.Processed*100/s.Total) / 100), true
	default:
		return 0, false
	}
}

func clampFraction(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
