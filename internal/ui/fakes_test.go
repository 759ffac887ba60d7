package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kostyay/kaspamon/internal/model"
	"github.com/kostyay/kaspamon/internal/reconcile"
)

type fakeState struct {
	snap   reconcile.Snapshot
	ticks  int
	panics bool
}

func (f *fakeState) Tick() int {
	if f.panics {
		panic("reconciler exploded")
	}
	f.ticks++
	return 0
}

func (f *fakeState) Snapshot() reconcile.Snapshot { return f.snap }

type fakeNotes struct{ pending []model.Notification }

func (f *fakeNotes) Drain() []model.Notification {
	out := f.pending
	f.pending = nil
	return out
}

type fakeNode struct {
	managed  bool
	err      error
	restarts int
}

func (f *fakeNode) Managed() bool { return f.managed }
func (f *fakeNode) Restart(ctx context.Context) error {
	f.restarts++
	return f.err
}

type fakeMarket struct{ enabled bool }

func (f *fakeMarket) Enabled() bool           { return f.enabled }
func (f *fakeMarket) SetEnabled(enabled bool) { f.enabled = enabled }

func testSnapshot() reconcile.Snapshot {
	network := model.NetworkMainnet
	return reconcile.Snapshot{
		State: model.State{
			IsConnected:     true,
			Synced:          model.Ptr(true),
			ServerVersion:   model.Ptr("0.13.4"),
			NetworkID:       &network,
			CurrentDaaScore: model.Ptr(uint64(1234567)),
		},
		Prices: model.CurrencyPriceMap{
			"usd": {Price: model.Ptr(0.1234), Change: model.Ptr(-1.5), MarketCap: model.Ptr(3.2e9)},
		},
		NodePhase: model.PhaseSynced,
		Resources: &model.NodeUsage{CPUPercent: 12.5, RSSBytes: 512 << 20, Peers: 8},
		Logs: []model.LogRecord{
			{Severity: model.SeverityInfo, Text: "Accepted 12 blocks"},
			{Severity: model.SeverityError, Text: "peer misbehaved"},
		},
		LogTotal: 2,
	}
}

type testEnv struct {
	state  *fakeState
	notes  *fakeNotes
	node   *fakeNode
	market *fakeMarket
}

func createTestModel() (Model, *testEnv) {
	env := &testEnv{
		state:  &fakeState{snap: testSnapshot()},
		notes:  &fakeNotes{},
		node:   &fakeNode{managed: true},
		market: &fakeMarket{enabled: true},
	}
	m := NewModel(Options{
		State:         env.state,
		Notifications: env.notes,
		Node:          env.node,
		Market:        env.market,
		Version:       "v1.0.0",
	})
	return m, env
}

// sizedModel returns a model that received a window size and one tick.
func sizedModel() (Model, *testEnv) {
	m, env := createTestModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	updated, _ = updated.Update(TickMsg(time.Now()))
	return updated.(Model), env
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}
