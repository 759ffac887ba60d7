package ui

import (
	"fmt"
	"strings"
)

// truncateString truncates a string to maxLen with ellipsis if needed.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen < 4 {
		return string(r[:max(maxLen, 0)])
	}
	return string(r[:maxLen-3]) + "..."
}

// formatChange renders a 24h change with an explicit sign.
func formatChange(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// progressBar renders fraction (0..1) as a fixed-width bar.
func progressBar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(fraction*float64(width) + 0.5)
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
