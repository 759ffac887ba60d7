package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/kostyay/kaspamon/internal/model"
	"github.com/kostyay/kaspamon/internal/output"
)

// Layout constants for fixed chrome around the scrollable log.
const (
	headerHeight = 3 // double-line box header (top border + content + bottom border)
	marketHeight = 1
	frameHeight  = 2 // log frame top and bottom border
	footerHeight = 1
	chromeHeight = headerHeight + marketHeight + frameHeight + maxToasts + footerHeight
)

// View renders the UI.
func (m Model) View() (out string) {
	defer func() {
		if m.handlePanic(recover()) {
			out = ""
		}
	}()

	if m.quitting {
		return ""
	}

	// Wait for viewport to be initialized
	if !m.ready {
		return LoadingStyle().Render("Initializing...")
	}

	if m.helpMode {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderHelp())
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderMarket())
	b.WriteString("\n")
	b.WriteString(m.renderLogFrame())
	b.WriteString("\n")
	b.WriteString(m.renderToasts())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader renders the node status box: phase, sync progress, DAA score
// and resource usage.
func (m Model) renderHeader() string {
	snap := m.snapshot
	st := snap.State
	stats := StatsStyle()

	indicator := "◉"
	if m.animations && m.animationFrame == 1 {
		indicator = "○"
	}
	parts := []string{PhaseStyle(snap.NodePhase).Render(indicator + " " + strings.ToUpper(snap.NodePhase.String()))}

	if st.SyncState != nil && !st.IsSynced() {
		sync := st.SyncState.Caption()
		if f, ok := st.SyncState.Percent(); ok {
			sync += fmt.Sprintf(" %s %3.0f%%", progressBar(f, 12), f*100)
		}
		parts = append(parts, WarnStyle().Render(sync))
	}
	if st.CurrentDaaScore != nil {
		parts = append(parts, stats.Render("DAA "+humanize.Comma(int64(*st.CurrentDaaScore))))
	}
	if st.NetworkID != nil {
		parts = append(parts, stats.Render(string(*st.NetworkID)))
	}
	if r := snap.Resources; r != nil {
		parts = append(parts, stats.Render(fmt.Sprintf("cpu %.1f%%  rss %s  peers %d", r.CPUPercent, humanize.IBytes(r.RSSBytes), r.Peers)))
	}
	if snap.ExitCode != nil && *snap.ExitCode != 0 {
		parts = append(parts, DownStyle().Render(fmt.Sprintf("exit %d", *snap.ExitCode)))
	}
	if snap.Release != nil {
		parts = append(parts, WarnStyle().Render("▲ "+snap.Release.Version))
	}

	// Drop trailing sections until the line fits
	for len(parts) > 1 && lipgloss.Width(strings.Join(parts, "   ")) > m.width-4 {
		parts = parts[:len(parts)-1]
	}
	content := strings.Join(parts, "   ")

	title := "KASPAMON"
	if st.ServerVersion != nil {
		title += " · kaspad " + *st.ServerVersion
	}
	return renderFrame([]string{content}, title, m.width, doubleBox, BorderStyle(), HeaderStyle())
}

// renderMarket renders one line of prices, or why there are none.
func (m Model) renderMarket() string {
	stats := StatsStyle()
	if m.market != nil && !m.market.Enabled() {
		return stats.Render(" market: off")
	}

	snap := m.snapshot
	if len(snap.Prices) == 0 {
		if snap.MarketError != "" {
			return WarnStyle().Render(" market: " + truncateString(snap.MarketError, max(m.width-10, 10)))
		}
		return stats.Render(" market: waiting for data")
	}

	var parts []string
	for _, code := range snap.Prices.Codes() {
		p := snap.Prices[code]
		if p.Price == nil {
			continue
		}
		part := HeaderStyle().Render("KAS/"+strings.ToUpper(code)) + " " + output.FormatPrice(*p.Price)
		if p.Change != nil {
			style := LiveIndicatorStyle()
			if *p.Change < 0 {
				style = DownStyle()
			}
			part += " " + style.Render(formatChange(*p.Change))
		}
		if p.MarketCap != nil {
			part += stats.Render(" mcap " + output.FormatCompact(*p.MarketCap))
		}
		parts = append(parts, part)
	}
	line := " " + strings.Join(parts, stats.Render("  │  "))
	if snap.MarketError != "" {
		line += WarnStyle().Render("  ⚠ stale")
	}
	return line
}

// renderLogFrame renders the node log viewport inside a rounded frame.
func (m Model) renderLogFrame() string {
	title := fmt.Sprintf("node log: %s lines", humanize.Comma(int64(m.snapshot.LogTotal)))
	lines := strings.Split(m.viewport.View(), "\n")
	return renderFrame(lines, title, m.width, roundedBox, BorderStyle(), HeaderStyle())
}

// renderToasts renders the notification shelf, always maxToasts lines tall.
func (m Model) renderToasts() string {
	items := m.shelf.Items()
	lines := make([]string, 0, maxToasts)
	for i := len(items) - 1; i >= 0 && len(lines) < maxToasts; i-- {
		n := items[i]
		text := " " + toastIcon(n.Kind) + " " + n.Message
		if n.Progress && n.Duration != nil {
			text += " " + StatsStyle().Render(progressBar(n.Remaining(m.now), 8))
		}
		if n.Closable {
			text += StatsStyle().Render("  [d]")
		}
		lines = append(lines, NotifyStyle(n.Kind).Render(truncateString(text, max(m.width, 1))))
	}
	for len(lines) < maxToasts {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func toastIcon(kind model.NotifyKind) string {
	switch kind {
	case model.NotifySuccess:
		return "✔"
	case model.NotifyWarning:
		return "⚠"
	case model.NotifyError:
		return "✖"
	case model.NotifyBasic:
		return "•"
	default:
		return "ℹ"
	}
}

// renderFooter renders the key hints and the refresh rate.
func (m Model) renderFooter() string {
	keys := []Keybinding{KeyQuit, KeyRestart, KeyMarket, KeyDismiss, KeyHelp}
	var hints []string
	for _, k := range keys {
		if k == KeyRestart && (m.node == nil || !m.node.Managed()) {
			continue
		}
		hints = append(hints, FooterKeyStyle().Render(k.Key)+" "+FooterDescStyle().Render(strings.ToLower(k.Desc)))
	}
	left := " " + strings.Join(hints, FooterDescStyle().Render(" · "))

	right := fmt.Sprintf("%s ", m.refreshInterval)
	if m.version != "" {
		right = m.version + "  " + right
	}
	right = StatsStyle().Render(right)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderHelp renders the keyboard shortcut modal.
func (m Model) renderHelp() string {
	var lines []string
	for _, k := range helpBindings {
		lines = append(lines, FooterKeyStyle().Render(padRight(k.Key, 8))+FooterDescStyle().Render(k.Desc))
	}
	lines = append(lines, "", StatsStyle().Render("esc to close"))
	return renderFrame(lines, "Keyboard Shortcuts", 40, heavyBox, ActiveBorderStyle(), ActiveBorderStyle().Bold(true))
}
