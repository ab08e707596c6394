// Package report renders backtest results as text for the CLI. It is purely
// presentational: all numbers come computed from the backtest package.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"backlab/internal/backtest"
	"backlab/internal/domain"
)

// Render writes a human-readable summary of the backtest result to w.
func Render(w io.Writer, res *backtest.Result) {
	s := &res.Stats

	fmt.Fprintln(w, "Backtest Results")
	fmt.Fprintln(w, strings.Repeat("=", 40))
	fmt.Fprintf(w, "Total Trades:    %d\n", s.TotalTrades)

	if s.TotalTrades == 0 {
		fmt.Fprintln(w, "\nNo trades executed with current strategy settings.")
		fmt.Fprintln(w, "Check entry/exit conditions, indicator warm-up, and the selected period.")
		return
	}

	fmt.Fprintf(w, "Win Rate:        %.2f%%\n", s.WinRate)
	fmt.Fprintf(w, "Profit Factor:   %s\n", formatProfitFactor(s.ProfitFactor))
	fmt.Fprintf(w, "Total Return:    %.2f%%\n", s.TotalReturn)
	fmt.Fprintf(w, "Max Drawdown:    %.2f%%\n", s.MaxDrawdown)
	fmt.Fprintf(w, "Sharpe Ratio:    %.2f\n", s.SharpeRatio)

	fmt.Fprintln(w, "\nTrade Statistics")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "Average Win:     $%.2f\n", s.AvgWin)
	fmt.Fprintf(w, "Average Loss:    $%.2f\n", s.AvgLoss)
	fmt.Fprintf(w, "Largest Win:     $%.2f\n", s.LargestWin)
	fmt.Fprintf(w, "Largest Loss:    $%.2f\n", s.LargestLoss)
}

// RenderTrades writes the individual closed trades to w, one line each.
func RenderTrades(w io.Writer, trades []domain.ClosedTrade) {
	if len(trades) == 0 {
		return
	}
	fmt.Fprintln(w, "\nTrades")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	for _, t := range trades {
		fmt.Fprintf(w, "%s  %-5s  %s -> %s  %d @ %.2f -> %.2f  pnl $%.2f (%.2f%%)  [%s]\n",
			t.Symbol,
			t.Side,
			t.EntryTime.Format("2006-01-02"),
			t.ExitTime.Format("2006-01-02"),
			t.Shares,
			t.EntryPrice,
			t.ExitPrice,
			t.PnL,
			t.PnLPct,
			t.ExitLabel,
		)
	}
}

// formatProfitFactor renders the +Inf sentinel (no losing trades) as "inf".
func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", pf)
}
