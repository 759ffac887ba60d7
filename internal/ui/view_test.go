package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kostyay/kaspamon/internal/model"
)

func TestView_NotReady(t *testing.T) {
	m, _ := createTestModel()
	if got := m.View(); !strings.Contains(got, "Initializing") {
		t.Errorf("View() = %q, want loading text", got)
	}
}

func TestView_Quitting(t *testing.T) {
	m, _ := sizedModel()
	m.quitting = true
	if got := m.View(); got != "" {
		t.Errorf("View() = %q, want empty", got)
	}
}

func TestView_RendersState(t *testing.T) {
	m, _ := sizedModel()
	view := m.View()

	for _, want := range []string{
		"KASPAMON · kaspad 0.13.4",
		"◉ SYNCED",
		"DAA 1,234,567",
		"mainnet",
		"peers 8",
		"KAS/USD 0.123400 -1.50% mcap 3.2B",
		"node log: 2 lines",
		"Accepted 12 blocks",
		"peer misbehaved",
		"q quit",
		"v1.0.0",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q\n%s", want, view)
		}
	}
}

func TestView_FillsHeight(t *testing.T) {
	m, _ := sizedModel()
	if got := lipgloss.Height(m.View()); got != m.height {
		t.Errorf("view height = %d, want %d", got, m.height)
	}
}

func TestView_SyncProgress(t *testing.T) {
	m, env := createTestModel()
	env.state.snap.State.Synced = model.Ptr(false)
	env.state.snap.State.SyncState = &model.SyncState{Phase: model.SyncPhaseHeaders, Progress: 50}
	env.state.snap.NodePhase = model.PhaseSyncing

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 30})
	updated, _ = updated.Update(TickMsg(m.now))
	view := updated.View()

	if !strings.Contains(view, "◉ SYNCING") {
		t.Errorf("missing phase in\n%s", view)
	}
	if !strings.Contains(view, "Syncing Headers... ██████░░░░░░  50%") {
		t.Errorf("missing progress in\n%s", view)
	}
}

func TestView_MarketStates(t *testing.T) {
	m, env := sizedModel()

	env.market.enabled = false
	if got := m.renderMarket(); !strings.Contains(got, "market: off") {
		t.Errorf("renderMarket() = %q, want off", got)
	}

	env.market.enabled = true
	m.snapshot.Prices = nil
	if got := m.renderMarket(); !strings.Contains(got, "waiting for data") {
		t.Errorf("renderMarket() = %q, want waiting", got)
	}

	m.snapshot.MarketError = "network: connection refused"
	if got := m.renderMarket(); !strings.Contains(got, "connection refused") {
		t.Errorf("renderMarket() = %q, want the error", got)
	}
}

func TestView_Toasts(t *testing.T) {
	m, _ := sizedModel()
	m.shelf.Add(
		model.InfoNotification("one"),
		model.ErrorNotification("two").Sticky(),
	)

	got := m.renderToasts()
	lines := strings.Split(got, "\n")
	if len(lines) != maxToasts {
		t.Fatalf("toast lines = %d, want %d", len(lines), maxToasts)
	}
	// Newest first
	if !strings.Contains(lines[0], "✖ two") || !strings.Contains(lines[0], "[d]") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "ℹ one") {
		t.Errorf("line 1 = %q", lines[1])
	}
	if lines[2] != "" {
		t.Errorf("line 2 = %q, want empty", lines[2])
	}
}

func TestView_FooterHidesRestartForRemoteNode(t *testing.T) {
	m, env := sizedModel()
	if !strings.Contains(m.renderFooter(), "r restart node") {
		t.Error("managed node should show restart")
	}
	env.node.managed = false
	if strings.Contains(m.renderFooter(), "restart") {
		t.Error("remote node should not show restart")
	}
}

func TestView_Help(t *testing.T) {
	m, _ := sizedModel()
	m.helpMode = true
	view := m.View()
	if !strings.Contains(view, "Keyboard Shortcuts") || !strings.Contains(view, "Toggle market data") {
		t.Errorf("help view missing content\n%s", view)
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		fraction float64
		want     string
	}{
		{0, "░░░░"},
		{0.5, "██░░"},
		{1, "████"},
		{2, "████"},
		{-1, "░░░░"},
	}
	for _, tt := range tests {
		if got := progressBar(tt.fraction, 4); got != tt.want {
			t.Errorf("progressBar(%v) = %q, want %q", tt.fraction, got, tt.want)
		}
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("hello world", 8); got != "hello..." {
		t.Errorf("truncateString = %q", got)
	}
	if got := truncateString("short", 8); got != "short" {
		t.Errorf("truncateString = %q", got)
	}
	if got := truncateString("hello", 2); got != "he" {
		t.Errorf("truncateString = %q", got)
	}
}
