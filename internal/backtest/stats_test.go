package backtest

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"backlab/internal/domain"
)

func trade(pnl float64) domain.ClosedTrade {
	return domain.ClosedTrade{Symbol: "TEST", Side: domain.SideLong, PnL: pnl}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestComputeStatsMixedTrades(t *testing.T) {
	trades := []domain.ClosedTrade{
		trade(100), trade(300), trade(-50), trade(-150), trade(0),
	}
	curve := []float64{100000, 100100, 100400, 100350, 100200, 100200}

	r := ComputeStats(trades, curve)

	if r.TotalTrades != 5 {
		t.Errorf("TotalTrades = %d, want 5", r.TotalTrades)
	}
	if r.WinningTrades != 2 || r.LosingTrades != 2 {
		t.Errorf("win/loss = %d/%d, want 2/2 (breakeven excluded)", r.WinningTrades, r.LosingTrades)
	}
	if r.WinRate != 40 {
		t.Errorf("WinRate = %v, want 40", r.WinRate)
	}
	if r.AvgWin != 200 {
		t.Errorf("AvgWin = %v, want 200", r.AvgWin)
	}
	if r.AvgLoss != -100 {
		t.Errorf("AvgLoss = %v, want -100", r.AvgLoss)
	}
	if r.LargestWin != 300 {
		t.Errorf("LargestWin = %v, want 300", r.LargestWin)
	}
	if r.LargestLoss != -150 {
		t.Errorf("LargestLoss = %v, want -150", r.LargestLoss)
	}
	if r.ProfitFactor != 2 {
		t.Errorf("ProfitFactor = %v, want 2 (400/200)", r.ProfitFactor)
	}
	if !approx(r.TotalReturn, 0.2) {
		t.Errorf("TotalReturn = %v, want 0.2", r.TotalReturn)
	}
}

func TestComputeStatsAllWinners(t *testing.T) {
	trades := []domain.ClosedTrade{trade(100), trade(50)}
	curve := []float64{100000, 100100, 100150}

	r := ComputeStats(trades, curve)

	if r.WinRate != 100 {
		t.Errorf("WinRate = %v, want 100", r.WinRate)
	}
	if !math.IsInf(r.ProfitFactor, 1) {
		t.Errorf("ProfitFactor = %v, want +Inf with no losers", r.ProfitFactor)
	}
	if r.AvgLoss != 0 {
		t.Errorf("AvgLoss = %v, want 0", r.AvgLoss)
	}
}

func TestComputeStatsNoTrades(t *testing.T) {
	r := ComputeStats(nil, []float64{100000})

	if r.TotalTrades != 0 || r.WinRate != 0 || r.ProfitFactor != 0 {
		t.Errorf("empty input produced non-zero report: %+v", r)
	}
	if r.SharpeRatio != 0 || r.MaxDrawdown != 0 || r.TotalReturn != 0 {
		t.Errorf("empty input produced non-zero curve stats: %+v", r)
	}
}

func TestMaxDrawdown(t *testing.T) {
	// Peak 120, trough 90: drawdown (120-90)/120 = 25%.
	curve := []float64{100, 120, 90, 130}
	if got := maxDrawdown(curve); got != 25 {
		t.Errorf("maxDrawdown = %v, want 25", got)
	}

	// Monotonic rise never draws down.
	if got := maxDrawdown([]float64{100, 110, 120}); got != 0 {
		t.Errorf("maxDrawdown of rising curve = %v, want 0", got)
	}
}

func TestSharpeRatioConstantEquity(t *testing.T) {
	curve := []float64{100000, 100000, 100000, 100000}
	if got := sharpeRatio(curve); got != 0 {
		t.Errorf("sharpeRatio of constant curve = %v, want 0", got)
	}
}

func TestSharpeRatioShortCurve(t *testing.T) {
	for _, curve := range [][]float64{nil, {100000}, {100000, 100100}} {
		if got := sharpeRatio(curve); got != 0 {
			t.Errorf("sharpeRatio(%v) = %v, want 0", curve, got)
		}
	}
}

func TestSharpeRatioVolatileCurve(t *testing.T) {
	curve := []float64{100000, 101000, 100500, 102000, 101500, 103000}
	got := sharpeRatio(curve)
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("sharpeRatio = %v, want finite", got)
	}
	if got <= 0 {
		t.Errorf("sharpeRatio = %v, want > 0 for an upward-drifting curve", got)
	}
}

func TestTotalReturn(t *testing.T) {
	if got := totalReturn([]float64{100000, 105000}); !approx(got, 5) {
		t.Errorf("totalReturn = %v, want 5", got)
	}
	if got := totalReturn(nil); got != 0 {
		t.Errorf("totalReturn(nil) = %v, want 0", got)
	}
}

func TestReportMarshalJSONInfiniteProfitFactor(t *testing.T) {
	r := Report{TotalTrades: 1, WinningTrades: 1, WinRate: 100, ProfitFactor: math.Inf(1)}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"profit_factor":"inf"`) {
		t.Errorf("marshaled report %s does not encode profit_factor as \"inf\"", data)
	}

	// A finite profit factor stays numeric.
	r.ProfitFactor = 1.5
	data, err = json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"profit_factor":1.5`) {
		t.Errorf("marshaled report %s does not encode profit_factor as 1.5", data)
	}
}

func TestReportJSONRoundTrip(t *testing.T) {
	for _, pf := range []float64{2.5, math.Inf(1)} {
		in := Report{TotalTrades: 3, WinningTrades: 2, ProfitFactor: pf, SharpeRatio: 1.1}

		data, err := json.Marshal(in)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		var out Report
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if out != in {
			t.Errorf("round trip = %+v, want %+v", out, in)
		}
	}
}
