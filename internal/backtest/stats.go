package backtest

import (
	"encoding/json"
	"math"

	"backlab/internal/domain"
)

// Trading-day annualization constants for the Sharpe ratio.
const (
	riskFreeRate  = 0.02 // annual risk-free rate
	tradingDays   = 252
	dailyRiskFree = riskFreeRate / tradingDays
)

// Report holds the summary metrics of one backtest run. Every field is a
// defined value for every input: degenerate cases (no trades, no losers,
// zero return volatility) produce the documented sentinels, never NaN.
type Report struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`       // percent
	AvgWin        float64 `json:"avg_win"`        // currency
	AvgLoss       float64 `json:"avg_loss"`       // currency, negative
	LargestWin    float64 `json:"largest_win"`    // currency
	LargestLoss   float64 `json:"largest_loss"`   // currency
	ProfitFactor  float64 `json:"profit_factor"`  // +Inf when no losing trades
	MaxDrawdown   float64 `json:"max_drawdown"`   // positive percent
	TotalReturn   float64 `json:"total_return"`   // percent
	SharpeRatio   float64 `json:"sharpe_ratio"`
}

// MarshalJSON renders the +Inf profit-factor sentinel as the string "inf",
// since JSON has no infinity literal.
func (r Report) MarshalJSON() ([]byte, error) {
	type alias Report
	out := struct {
		alias
		ProfitFactor any `json:"profit_factor"`
	}{alias: alias(r), ProfitFactor: r.ProfitFactor}
	if math.IsInf(r.ProfitFactor, 1) {
		out.ProfitFactor = "inf"
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts both a numeric profit factor and the "inf" sentinel.
func (r *Report) UnmarshalJSON(data []byte) error {
	type alias Report
	in := struct {
		*alias
		ProfitFactor json.RawMessage `json:"profit_factor"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if len(in.ProfitFactor) == 0 {
		return nil
	}
	if string(in.ProfitFactor) == `"inf"` {
		r.ProfitFactor = math.Inf(1)
		return nil
	}
	return json.Unmarshal(in.ProfitFactor, &r.ProfitFactor)
}

// ComputeStats reduces the closed-trade list and equity curve into a Report.
// It is a pure function: identical inputs always produce identical output.
func ComputeStats(trades []domain.ClosedTrade, equityCurve []float64) Report {
	r := Report{
		TotalTrades: len(trades),
		TotalReturn: totalReturn(equityCurve),
	}
	if len(trades) == 0 {
		return r
	}

	var (
		grossWin, grossLoss float64
		largestWin          = math.Inf(-1)
		largestLoss         = math.Inf(1)
	)
	for _, t := range trades {
		switch {
		case t.PnL > 0:
			r.WinningTrades++
			grossWin += t.PnL
		case t.PnL < 0:
			r.LosingTrades++
			grossLoss += t.PnL
		}
		// Breakeven trades count toward the total only.
		largestWin = math.Max(largestWin, t.PnL)
		largestLoss = math.Min(largestLoss, t.PnL)
	}

	r.WinRate = float64(r.WinningTrades) / float64(r.TotalTrades) * 100
	r.LargestWin = largestWin
	r.LargestLoss = largestLoss
	if r.WinningTrades > 0 {
		r.AvgWin = grossWin / float64(r.WinningTrades)
	}
	if r.LosingTrades > 0 {
		r.AvgLoss = grossLoss / float64(r.LosingTrades)
	}

	if grossLoss == 0 {
		r.ProfitFactor = math.Inf(1)
	} else {
		r.ProfitFactor = math.Abs(grossWin / grossLoss)
	}

	r.MaxDrawdown = maxDrawdown(equityCurve)
	r.SharpeRatio = sharpeRatio(equityCurve)
	return r
}

// totalReturn is the percent change between the equity curve endpoints.
func totalReturn(curve []float64) float64 {
	if len(curve) == 0 || curve[0] == 0 {
		return 0
	}
	return (curve[len(curve)-1] - curve[0]) / curve[0] * 100
}

// maxDrawdown is the largest peak-to-trough decline of the equity curve,
// expressed as a positive percent of the running peak.
func maxDrawdown(curve []float64) float64 {
	var peak, maxDD float64
	for _, v := range curve {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak * 100; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sharpeRatio annualizes the mean excess bar-over-bar return of the equity
// curve against its sample standard deviation. Series with fewer than 2
// returns or zero volatility score 0.
func sharpeRatio(curve []float64) float64 {
	var returns []float64
	for i := 1; i < len(curve); i++ {
		if curve[i-1] == 0 {
			continue
		}
		returns = append(returns, curve[i]/curve[i-1]-1)
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, ret := range returns {
		sum += ret - dailyRiskFree
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, ret := range returns {
		d := (ret - dailyRiskFree) - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1) // sample variance

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return math.Sqrt(tradingDays) * mean / std
}
