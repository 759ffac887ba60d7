package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/kostyay/kaspamon/internal/model"
	"github.com/kostyay/kaspamon/internal/reconcile"
)

// StatusLine summarizes the snapshot on one line for headless logging.
func StatusLine(snap reconcile.Snapshot) string {
	st := snap.State
	parts := []string{"node=" + snap.NodePhase.String()}

	if st.SyncState != nil && !st.IsSynced() {
		caption := st.SyncState.Caption()
		if f, ok := st.SyncState.Percent(); ok {
			caption += fmt.Sprintf(" %.0f%%", f*100)
		}
		parts = append(parts, "sync="+caption)
	} else if st.IsSynced() {
		parts = append(parts, "sync=synced")
	}
	if st.CurrentDaaScore != nil {
		parts = append(parts, "daa="+humanize.Comma(int64(*st.CurrentDaaScore)))
	}
	if r := snap.Resources; r != nil {
		parts = append(parts,
			fmt.Sprintf("cpu=%.1f%%", r.CPUPercent),
			"rss="+humanize.IBytes(r.RSSBytes),
			fmt.Sprintf("peers=%d", r.Peers),
		)
	}
	for _, code := range snap.Prices.Codes() {
		if p := snap.Prices[code].Price; p != nil {
			parts = append(parts, code+"="+FormatPrice(*p))
		}
	}
	return strings.Join(parts, " ")
}

// FormatPrice renders a price with precision suited to its magnitude.
func FormatPrice(v float64) string {
	switch {
	case v >= 1000:
		return humanize.CommafWithDigits(v, 2)
	case v >= 1:
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%.6f", v)
	}
}

// FormatCompact renders large figures such as market cap as 3.2B.
func FormatCompact(v float64) string {
	value, prefix := humanize.ComputeSI(v)
	suffix := map[string]string{"k": "K", "M": "M", "G": "B", "T": "T"}[prefix]
	return humanize.FtoaWithDigits(value, 2) + suffix
}

// RenderCurrencies writes the catalog as aligned text, one entry per line.
func RenderCurrencies(w io.Writer, list []model.CurrencyDescriptor) error {
	width := 0
	for _, c := range list {
		width = max(width, len(c.Symbol))
	}
	for _, c := range list {
		if _, err := fmt.Fprintf(w, "%-*s  %s (%s)\n", width, c.Symbol, c.Name, c.ID); err != nil {
			return err
		}
	}
	return nil
}
