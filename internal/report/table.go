package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"quantsignal/internal/options"
	"quantsignal/internal/service"
)

// WriteRankedTable renders the scored chain as a console table, best first.
func WriteRankedTable(w io.Writer, scored []options.Scored) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Strike", "Type", "Last", "POP", "Spread%", "BE", "Score", "Tier"})
	for i, s := range scored {
		pop := "n/a"
		if s.POP.Valid {
			pop = fmt.Sprintf("%.1f%%", s.POP.Value*100)
		}
		t.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("%.2f", s.Strike),
			s.Type,
			fmt.Sprintf("%.2f", s.LastPrice),
			pop,
			fmt.Sprintf("%.1f", s.SpreadPct),
			fmt.Sprintf("%.2f", s.Breakeven),
			fmt.Sprintf("%.3f", s.OverallScore),
			s.QualityTier,
		})
	}
	t.Render()
}

// WriteSnapshotTable renders the per-resolution indicator snapshot.
func WriteSnapshotTable(w io.Writer, rep *service.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s  %.2f  %s (%.0f%%)", rep.Symbol, rep.Price, rep.Trend.Label, rep.Trend.Confidence))
	t.AppendHeader(table.Row{"Interval", "Bars", "Close", "VWAP", "RSI", "MACD", "Signal"})
	for _, r := range rep.Resolutions {
		t.AppendRow(table.Row{
			r.Interval,
			r.Bars,
			fmt.Sprintf("%.2f", r.Close),
			fmt.Sprintf("%.2f", r.VWAP),
			fmt.Sprintf("%.1f", r.RSI),
			fmt.Sprintf("%.4f", r.MACD),
			fmt.Sprintf("%.4f", r.Signal),
		})
	}
	t.Render()
}
