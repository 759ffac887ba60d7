// Package output renders runtime snapshots for non-interactive use.
package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/kostyay/kaspamon/internal/model"
	"github.com/kostyay/kaspamon/internal/reconcile"
)

// JSONSync is the sync section of the JSON output.
type JSONSync struct {
	Phase    string   `json:"phase"`
	Caption  string   `json:"caption"`
	Percent  *float64 `json:"percent,omitempty"`
	Synced   bool     `json:"synced"`
	DaaScore *uint64  `json:"daa_score,omitempty"`
}

// JSONNode is the node section of the JSON output.
type JSONNode struct {
	Phase       string   `json:"phase"`
	Connected   bool     `json:"connected"`
	URL         string   `json:"url,omitempty"`
	Version     string   `json:"version,omitempty"`
	Network     string   `json:"network,omitempty"`
	NetworkLoad *float32 `json:"network_load,omitempty"`
	ExitCode    *int     `json:"exit_code,omitempty"`
	PID         int32    `json:"pid,omitempty"`
	CPUPercent  *float64 `json:"cpu_percent,omitempty"`
	RSSBytes    uint64   `json:"rss_bytes,omitempty"`
	Peers       int      `json:"peers,omitempty"`
	RecvBytes   uint64   `json:"recv_bytes,omitempty"`
	SentBytes   uint64   `json:"sent_bytes,omitempty"`
}

// JSONPrice is one currency in the market section.
type JSONPrice struct {
	Currency  string   `json:"currency"`
	Price     *float64 `json:"price,omitempty"`
	MarketCap *float64 `json:"market_cap,omitempty"`
	Volume    *float64 `json:"volume_24h,omitempty"`
	Change    *float64 `json:"change_24h,omitempty"`
}

// JSONLog is one node log line.
type JSONLog struct {
	Severity  string `json:"severity"`
	Timestamp string `json:"timestamp,omitempty"`
	Text      string `json:"text"`
}

// JSONOutput is the root JSON output structure.
type JSONOutput struct {
	Timestamp   time.Time   `json:"timestamp"`
	Node        JSONNode    `json:"node"`
	Sync        *JSONSync   `json:"sync,omitempty"`
	Market      []JSONPrice `json:"market"`
	MarketError string      `json:"market_error,omitempty"`
	NewRelease  string      `json:"new_release,omitempty"`
	Logs        []JSONLog   `json:"logs"`
	LogTotal    uint64      `json:"log_total"`
}

// Build converts a reconciler snapshot into the JSON output structure.
// At most maxLogs of the newest log lines are included.
func Build(snap reconcile.Snapshot, at time.Time, maxLogs int) JSONOutput {
	st := snap.State
	out := JSONOutput{
		Timestamp: at,
		Node: JSONNode{
			Phase:       snap.NodePhase.String(),
			Connected:   st.IsConnected,
			NetworkLoad: st.NetworkLoad,
			ExitCode:    snap.ExitCode,
		},
		Market:      make([]JSONPrice, 0, len(snap.Prices)),
		MarketError: snap.MarketError,
		Logs:        make([]JSONLog, 0),
		LogTotal:    snap.LogTotal,
	}
	if st.URL != nil {
		out.Node.URL = *st.URL
	}
	if st.ServerVersion != nil {
		out.Node.Version = *st.ServerVersion
	}
	if st.NetworkID != nil {
		out.Node.Network = string(*st.NetworkID)
	}
	if r := snap.Resources; r != nil {
		cpu := r.CPUPercent
		out.Node.PID = r.PID
		out.Node.CPUPercent = &cpu
		out.Node.RSSBytes = r.RSSBytes
		out.Node.Peers = r.Peers
		out.Node.RecvBytes = r.RecvBytes
		out.Node.SentBytes = r.SentBytes
	}

	if st.SyncState != nil || st.Synced != nil || st.CurrentDaaScore != nil {
		sync := &JSONSync{
			Synced:   st.IsSynced(),
			DaaScore: st.CurrentDaaScore,
		}
		if st.SyncState != nil {
			sync.Phase = st.SyncState.Phase.String()
			sync.Caption = st.SyncState.Caption()
			if f, ok := st.SyncState.Percent(); ok {
				pct := f * 100
				sync.Percent = &pct
			}
		}
		out.Sync = sync
	}

	for _, code := range snap.Prices.Codes() {
		p := snap.Prices[code]
		out.Market = append(out.Market, JSONPrice{
			Currency:  code,
			Price:     p.Price,
			MarketCap: p.MarketCap,
			Volume:    p.Volume,
			Change:    p.Change,
		})
	}

	if snap.Release != nil {
		out.NewRelease = snap.Release.Version
	}

	logs := snap.Logs
	if maxLogs >= 0 && len(logs) > maxLogs {
		logs = logs[len(logs)-maxLogs:]
	}
	for _, rec := range logs {
		out.Logs = append(out.Logs, jsonLog(rec))
	}
	return out
}

func jsonLog(rec model.LogRecord) JSONLog {
	return JSONLog{Severity: rec.Severity.String(), Timestamp: rec.Timestamp, Text: rec.Text}
}

// RenderJSON writes the snapshot as indented JSON to the writer.
func RenderJSON(w io.Writer, snap reconcile.Snapshot, at time.Time, maxLogs int) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Build(snap, at, maxLogs))
}
