package backtest

import (
	"fmt"
	"math"

	"backlab/internal/domain"
	"backlab/internal/strategy"
)

// tracker owns the lifecycle of the single open position inside one backtest
// run: sizing on entry, exit-condition evaluation per bar, and conversion of
// the position into a ClosedTrade on exit.
type tracker struct {
	cfg    *strategy.Config
	levels []float64 // take-profit thresholds, ascending
	pos    *domain.Position
}

func newTracker(cfg *strategy.Config) *tracker {
	return &tracker{
		cfg:    cfg,
		levels: cfg.TakeProfitLevels(),
	}
}

func (t *tracker) inPosition() bool { return t.pos != nil }

// open sizes and opens a position at the execution bar's Open. Sizing risks
// max_risk_per_trade_pct of initial capital against the stop distance:
//
//	risk  = capital * riskPct/100
//	value = risk / (stopPct/100)
//	shares = floor(value / entryOpen)
//
// Positions that size to zero shares are not opened; the run stays flat and
// the signal is effectively skipped.
func (t *tracker) open(sig domain.Signal, exec *domain.Bar) bool {
	riskAmount := t.cfg.Portfolio.InitialCapital * t.cfg.PositionSizing.MaxRiskPerTradePct / 100
	stopPct := t.cfg.Trade.StopLoss.ValuePct / 100
	positionValue := riskAmount / stopPct
	shares := int64(math.Floor(positionValue / exec.Open))
	if shares < 1 {
		return false
	}

	side := domain.SideLong
	stopPrice := exec.Open * (1 - stopPct)
	if sig == domain.SignalSell {
		side = domain.SideShort
		stopPrice = exec.Open * (1 + stopPct)
	}

	t.pos = &domain.Position{
		Side:             side,
		EntryPrice:       exec.Open,
		EntryTime:        exec.Timestamp,
		Shares:           shares,
		StopLossPrice:    stopPrice,
		TakeProfitLevels: t.levels,
	}
	return true
}

// exit describes a triggered exit condition.
type exit struct {
	reason domain.ExitReason
	label  string
}

// checkExit evaluates the exit conditions for the open position against the
// signal bar (intrabar High/Low, reversal signal) and the execution bar's
// Open (realized pnl for take-profit). The first condition that holds wins;
// the fixed priority is stop-loss, then take-profit, then signal reversal.
func (t *tracker) checkExit(signalBar, execBar *domain.Bar) (exit, bool) {
	p := t.pos

	// 1. Stop-loss: intrabar breach on the signal bar.
	if (p.Side == domain.SideLong && signalBar.Low <= p.StopLossPrice) ||
		(p.Side == domain.SideShort && signalBar.High >= p.StopLossPrice) {
		return exit{reason: domain.ExitStopLoss, label: string(domain.ExitStopLoss)}, true
	}

	// 2. Take-profit: realized pnl at the execution price, levels ascending —
	// the first level reached labels the exit.
	_, pnlPct := p.PnL(execBar.Open)
	for _, level := range p.TakeProfitLevels {
		if pnlPct >= level {
			return exit{
				reason: domain.ExitTakeProfit,
				label:  fmt.Sprintf("take_profit_%g%%", level),
			}, true
		}
	}

	// 3. Signal reversal on the signal bar.
	sig := strategy.Evaluate(signalBar, t.cfg.SignalType)
	if (p.Side == domain.SideLong && sig == domain.SignalSell) ||
		(p.Side == domain.SideShort && sig == domain.SignalBuy) {
		return exit{reason: domain.ExitSignalReversal, label: string(domain.ExitSignalReversal)}, true
	}

	return exit{}, false
}

// close converts the open position into a ClosedTrade at the given execution
// price and returns it. The tracker is flat afterwards.
func (t *tracker) close(exec *domain.Bar, price float64, e exit) domain.ClosedTrade {
	p := t.pos
	pnl, pnlPct := p.PnL(price)
	trade := domain.ClosedTrade{
		Symbol:     exec.Symbol,
		Side:       p.Side,
		EntryTime:  p.EntryTime,
		ExitTime:   exec.Timestamp,
		EntryPrice: p.EntryPrice,
		ExitPrice:  price,
		Shares:     p.Shares,
		PnL:        pnl,
		PnLPct:     pnlPct,
		ExitReason: e.reason,
		ExitLabel:  e.label,
	}
	t.pos = nil
	return trade
}
