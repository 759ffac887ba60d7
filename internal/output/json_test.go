package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/kostyay/kaspamon/internal/model"
	"github.com/kostyay/kaspamon/internal/reconcile"
)

func testSnapshot() reconcile.Snapshot {
	network := model.NetworkMainnet
	return reconcile.Snapshot{
		State: model.State{
			IsConnected:     true,
			URL:             model.Ptr("ws://127.0.0.1:18110"),
			ServerVersion:   model.Ptr("0.13.4"),
			NetworkID:       &network,
			SyncState:       &model.SyncState{Phase: model.SyncPhaseBlocks, Progress: 50},
			CurrentDaaScore: model.Ptr(uint64(1234567)),
		},
		Prices: model.CurrencyPriceMap{
			"usd": {Price: model.Ptr(0.1234), MarketCap: model.Ptr(3.2e9)},
			"btc": {Price: model.Ptr(0.000003)},
		},
		NodePhase: model.PhaseSyncing,
		Resources: &model.NodeUsage{PID: 77, CPUPercent: 12.5, RSSBytes: 512 << 20, Peers: 8},
		Logs: []model.LogRecord{
			{Severity: model.SeverityInfo, Text: "one"},
			{Severity: model.SeverityWarning, Timestamp: "2026-03-01 10:00:00.000+00:00", Text: "two"},
			{Severity: model.SeverityError, Text: "three"},
		},
		LogTotal: 3,
	}
}

func TestRenderJSON(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	if err := RenderJSON(&buf, testSnapshot(), at, 2); err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}

	var out JSONOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Failed to unmarshal output: %v", err)
	}

	if !out.Timestamp.Equal(at) {
		t.Errorf("Expected timestamp %v, got %v", at, out.Timestamp)
	}
	if out.Node.Phase != "Syncing" || !out.Node.Connected {
		t.Errorf("Unexpected node section: %+v", out.Node)
	}
	if out.Node.Network != "mainnet" || out.Node.Version != "0.13.4" {
		t.Errorf("Unexpected node identity: %+v", out.Node)
	}
	if out.Node.PID != 77 || out.Node.Peers != 8 || out.Node.CPUPercent == nil {
		t.Errorf("Unexpected node resources: %+v", out.Node)
	}

	if out.Sync == nil {
		t.Fatal("Expected sync section")
	}
	if out.Sync.Phase != "blocks" || out.Sync.Caption != "Syncing DAG Blocks..." || out.Sync.Synced {
		t.Errorf("Unexpected sync section: %+v", out.Sync)
	}
	if out.Sync.Percent == nil || *out.Sync.Percent != 50 {
		t.Errorf("Expected 50%% progress, got %v", out.Sync.Percent)
	}

	// Sorted by currency code
	if len(out.Market) != 2 || out.Market[0].Currency != "btc" || out.Market[1].Currency != "usd" {
		t.Errorf("Unexpected market section: %+v", out.Market)
	}

	// Newest two lines only
	if len(out.Logs) != 2 {
		t.Fatalf("Expected 2 logs, got %d", len(out.Logs))
	}
	if out.Logs[0].Severity != "warning" || out.Logs[1].Text != "three" {
		t.Errorf("Unexpected logs: %+v", out.Logs)
	}
	if out.LogTotal != 3 {
		t.Errorf("Expected log total 3, got %d", out.LogTotal)
	}
}

func TestRenderJSON_EmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderJSON(&buf, reconcile.Snapshot{}, time.Unix(0, 0).UTC(), 10); err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("Failed to unmarshal output: %v", err)
	}
	if _, ok := raw["sync"]; ok {
		t.Error("Expected no sync section before any sync signal")
	}
	if market, ok := raw["market"].([]any); !ok || len(market) != 0 {
		t.Errorf("Expected empty market array, got %v", raw["market"])
	}
	if logs, ok := raw["logs"].([]any); !ok || len(logs) != 0 {
		t.Errorf("Expected empty logs array, got %v", raw["logs"])
	}
}
