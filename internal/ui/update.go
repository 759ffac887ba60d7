package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kostyay/kaspamon/internal/model"
)

// nodeActionTimeout bounds a restart issued from the keyboard.
const nodeActionTimeout = 30 * time.Second

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (next tea.Model, cmd tea.Cmd) {
	defer func() {
		if m.handlePanic(recover()) {
			next, cmd = m, tea.Quit
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		viewportHeight := max(msg.Height-chromeHeight, 1)
		// Frame border and padding take 4 columns.
		viewportWidth := max(msg.Width-4, 1)

		if !m.ready {
			m.viewport = viewport.New(viewportWidth, viewportHeight)
			m.ready = true
		} else {
			m.viewport.Width = viewportWidth
			m.viewport.Height = viewportHeight
		}
		m.renderLogs(true)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		m.now = time.Time(msg)
		m.refresh()
		if m.animations {
			m.animationFrame = (m.animationFrame + 1) % 2
		}
		return m, m.tickCmd()

	case NodeActionMsg:
		m.restarting = false
		if msg.Err != nil {
			m.shelf.Add(model.ErrorNotification(fmt.Sprintf("Node %s failed: %v", msg.Action, msg.Err)))
		} else {
			m.shelf.Add(model.SuccessNotification("Node " + msg.Action + " complete").Short())
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Help modal intercepts everything but quit
	if m.helpMode {
		switch {
		case matchKey(key, KeyQuitAlt):
			m.quitting = true
			return m, tea.Quit
		case matchKey(key, KeyEsc, KeyHelp, KeyQuit):
			m.helpMode = false
		}
		return m, nil
	}

	switch {
	case matchKey(key, KeyQuit, KeyQuitAlt):
		m.quitting = true
		return m, tea.Quit

	case matchKey(key, KeyHelp):
		m.helpMode = true
		return m, nil

	case matchKey(key, KeyRestart):
		return m.restartNode()

	case matchKey(key, KeyMarket):
		if m.market == nil {
			return m, nil
		}
		enabled := !m.market.Enabled()
		m.market.SetEnabled(enabled)
		m.shelf.Add(model.InfoNotification("Market data " + onOff(enabled)).Short())
		return m, nil

	case matchKey(key, KeyDismiss):
		m.shelf.DismissNewest()
		return m, nil

	case key == KeyRefreshUp.Key || key == "=":
		m.refreshInterval = clampRefresh(m.refreshInterval - RefreshStep)
		return m, nil

	case key == KeyRefreshDown.Key || key == "_":
		m.refreshInterval = clampRefresh(m.refreshInterval + RefreshStep)
		return m, nil

	case matchKey(key, KeyTop):
		m.viewport.GotoTop()
		return m, nil

	case matchKey(key, KeyBottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	// Pass unhandled keys to viewport for page up/down, mouse scroll, etc.
	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) restartNode() (tea.Model, tea.Cmd) {
	if m.node == nil || !m.node.Managed() {
		m.shelf.Add(model.WarningNotification("The node is not managed by kaspamon").Short())
		return m, nil
	}
	if m.restarting {
		return m, nil
	}
	m.restarting = true
	m.shelf.Add(model.InfoNotification("Restarting node...").Short())

	node := m.node
	return m, func() (msg tea.Msg) {
		defer func() {
			if m.handlePanic(recover()) {
				msg = tea.Quit()
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), nodeActionTimeout)
		defer cancel()
		return NodeActionMsg{Action: "restart", Err: node.Restart(ctx)}
	}
}

// refresh pulls the latest state and notifications. It never blocks.
func (m *Model) refresh() {
	if m.state != nil {
		m.state.Tick()
		m.snapshot = m.state.Snapshot()
	}
	if m.notes != nil {
		m.shelf.Add(m.notes.Drain()...)
	}
	m.shelf.Prune(m.now)
	m.renderLogs(false)
}

// renderLogs refreshes the log viewport when new lines arrived, keeping the
// view pinned to the bottom unless the user scrolled up.
func (m *Model) renderLogs(force bool) {
	if !m.ready {
		return
	}
	if !force && m.snapshot.LogTotal == m.logCount {
		return
	}
	m.logCount = m.snapshot.LogTotal

	follow := m.viewport.AtBottom()
	lines := make([]string, 0, len(m.snapshot.Logs))
	for _, rec := range m.snapshot.Logs {
		lines = append(lines, LogStyle(rec.Severity).Render(rec.String()))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
