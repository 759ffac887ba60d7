package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kostyay/kaspamon/internal/config"
	"github.com/kostyay/kaspamon/internal/model"
)

// Theme-aware style getters

func fg(c config.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
}

// HeaderStyle returns the style for the main header title.
func HeaderStyle() lipgloss.Style {
	return fg(config.CurrentTheme.Styles.Header.TitleFg).Bold(true)
}

// LiveIndicatorStyle returns the style for the synced indicator (green).
func LiveIndicatorStyle() lipgloss.Style {
	return fg(config.CurrentTheme.Styles.Header.LiveFg).Bold(true)
}

// WarnStyle returns the style for warning/attention text (amber).
func WarnStyle() lipgloss.Style {
	return fg(config.CurrentTheme.Styles.Header.WarnFg)
}

// DownStyle returns the style for a stopped or unreachable node (red).
func DownStyle() lipgloss.Style {
	return fg(config.CurrentTheme.Styles.Header.DownFg).Bold(true)
}

// StatsStyle returns the style for muted stats text.
func StatsStyle() lipgloss.Style {
	return fg(config.CurrentTheme.Styles.Header.StatsFg)
}

// LoadingStyle returns the style for loading indicators.
func LoadingStyle() lipgloss.Style {
	return StatsStyle().Italic(true)
}

// FooterKeyStyle returns the style for keyboard shortcut keys in footer.
func FooterKeyStyle() lipgloss.Style {
	return fg(config.CurrentTheme.Styles.Footer.KeyFgColor)
}

// FooterDescStyle returns the style for key descriptions in footer.
func FooterDescStyle() lipgloss.Style {
	return fg(config.CurrentTheme.Styles.Footer.DescFgColor)
}

// BorderStyle returns the style for borders.
func BorderStyle() lipgloss.Style {
	return fg(config.CurrentTheme.Styles.Border.FgColor)
}

// ActiveBorderStyle returns the style for the focused panel and modals.
func ActiveBorderStyle() lipgloss.Style {
	return fg(config.CurrentTheme.Styles.Border.ActiveFgColor)
}

// LogStyle returns the style for a node log line of the given severity.
func LogStyle(sev model.Severity) lipgloss.Style {
	logs := config.CurrentTheme.Styles.Logs
	switch sev {
	case model.SeverityDebug:
		return fg(logs.DebugFg)
	case model.SeverityTrace:
		return fg(logs.TraceFg)
	case model.SeverityWarning:
		return fg(logs.WarningFg)
	case model.SeverityError:
		return fg(logs.ErrorFg).Bold(true)
	case model.SeverityProcessed:
		return fg(logs.ProcessedFg)
	default:
		return fg(logs.InfoFg)
	}
}

// NotifyStyle returns the style for a notification of the given kind.
func NotifyStyle(kind model.NotifyKind) lipgloss.Style {
	n := config.CurrentTheme.Styles.Notify
	switch kind {
	case model.NotifySuccess:
		return fg(n.SuccessFg)
	case model.NotifyWarning:
		return fg(n.WarningFg)
	case model.NotifyError:
		return fg(n.ErrorFg).Bold(true)
	case model.NotifyBasic:
		return fg(n.BasicFg)
	default:
		return fg(n.InfoFg)
	}
}

// PhaseStyle returns the header style for a node phase.
func PhaseStyle(p model.NodePhase) lipgloss.Style {
	switch p {
	case model.PhaseSynced:
		return LiveIndicatorStyle()
	case model.PhaseStarting, model.PhaseConnected, model.PhaseSyncing:
		return WarnStyle().Bold(true)
	default:
		return DownStyle()
	}
}

// padRight pads a string to the specified width.
func padRight(s string, width int) string {
	// Use lipgloss to measure visible width (handles ANSI escape codes)
	visibleWidth := lipgloss.Width(s)
	if visibleWidth >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleWidth)
}

// boxChars is one set of frame drawing characters.
type boxChars struct {
	topLeft, topRight, bottomLeft, bottomRight, horizontal, vertical string
}

var (
	doubleBox  = boxChars{"╔", "╗", "╚", "╝", "═", "║"}
	roundedBox = boxChars{"╭", "╮", "╰", "╯", "─", "│"}
	heavyBox   = boxChars{"┏", "┓", "┗", "┛", "━", "┃"}
)

// renderFrame draws lines inside a box of the given outer width with title
// centered on the top border.
func renderFrame(lines []string, title string, width int, box boxChars, border, titleStyle lipgloss.Style) string {
	innerWidth := max(width-2, 0)

	titleWithPadding := " " + title + " "
	if title == "" {
		titleWithPadding = ""
	}
	remaining := innerWidth - lipgloss.Width(titleWithPadding)
	if remaining < 0 {
		remaining = 0
		titleWithPadding = truncateString(titleWithPadding, innerWidth)
	}
	leftPad := remaining / 2
	rightPad := remaining - leftPad

	var b strings.Builder
	b.WriteString(border.Render(box.topLeft + strings.Repeat(box.horizontal, leftPad)))
	b.WriteString(titleStyle.Render(titleWithPadding))
	b.WriteString(border.Render(strings.Repeat(box.horizontal, rightPad) + box.topRight))
	b.WriteString("\n")

	for _, line := range lines {
		b.WriteString(border.Render(box.vertical))
		b.WriteString(" ")
		b.WriteString(padRight(line, innerWidth-2))
		b.WriteString(" ")
		b.WriteString(border.Render(box.vertical))
		b.WriteString("\n")
	}

	b.WriteString(border.Render(box.bottomLeft + strings.Repeat(box.horizontal, innerWidth) + box.bottomRight))
	return b.String()
}
