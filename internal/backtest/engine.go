// Package backtest implements the event-driven backtest engine: a
// deterministic bar-by-bar fold over an annotated OHLCV series that simulates
// trade execution under a declarative strategy configuration and reduces the
// outcome into performance statistics.
package backtest

import (
	"log/slog"

	"backlab/internal/domain"
	"backlab/internal/strategy"
)

// Result is the complete output of one backtest run.
type Result struct {
	Trades      []domain.ClosedTrade `json:"trades"`
	EquityCurve []float64            `json:"equity_curve"`
	Stats       Report               `json:"stats"`
}

// Engine drives the simulation loop. One Engine may run any number of
// backtests; each run owns its state exclusively, so independent runs are
// safe to execute in parallel from separate goroutines.
type Engine struct {
	log *slog.Logger
}

// NewEngine creates an Engine that logs per-trade activity at debug level.
func NewEngine(log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{log: log.With("component", "backtest")}
}

// Run simulates the strategy over the bar sequence and returns the closed
// trades, the equity curve, and summary statistics.
//
// Bars must be in ascending timestamp order. Bar i provides the signal and
// exit evaluation, bar i+1 the execution price; the one-bar lag models order
// latency and applies to both entries and exits. A position still open after
// the last bar is force-closed at that bar's Close. Entries whose execution
// bar would be the final bar are not taken, so every closed trade has
// exit_time strictly after entry_time. Fills require a usable execution bar:
// a malformed one defers the decision to the next usable pair, and a
// malformed final bar moves the forced close back to the latest usable bar.
//
// The equity curve has exactly one point per bar, with EquityCurve[0] equal
// to the initial capital (no execution can occur on the first bar). The
// end-of-period forced close is realized in the final bar's point.
//
// Fewer than 2 bars is not an error: the result has zero trades and an
// equity curve holding only the initial capital.
func (e *Engine) Run(bars []domain.Bar, cfg strategy.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	capital := cfg.Portfolio.InitialCapital
	if len(bars) < 2 {
		e.log.Debug("not enough bars to simulate", "bars", len(bars))
		curve := []float64{capital}
		return &Result{
			Trades:      []domain.ClosedTrade{},
			EquityCurve: curve,
			Stats:       ComputeStats(nil, curve),
		}, nil
	}

	var (
		trades = []domain.ClosedTrade{}
		curve  = make([]float64, 1, len(bars))
		trk    = newTracker(&cfg)
	)
	curve[0] = capital

	for i := 0; i < len(bars)-1; i++ {
		signalBar := &bars[i]
		execBar := &bars[i+1]
		realized := 0.0

		// Unusable bars contribute no trading decision but still advance the
		// equity curve. A fill needs a usable execution bar as well: with a
		// malformed one the decision is deferred to the next usable pair
		// rather than filling at a garbage price.
		if err := signalBar.Validate(); err != nil {
			e.log.Debug("skipping unusable bar", "error", err)
			curve = append(curve, curve[len(curve)-1]+realized)
			continue
		}
		if err := execBar.Validate(); err != nil {
			e.log.Debug("deferring fill past unusable execution bar", "error", err)
			curve = append(curve, curve[len(curve)-1]+realized)
			continue
		}

		if trk.inPosition() {
			if ex, ok := trk.checkExit(signalBar, execBar); ok {
				trade := trk.close(execBar, execBar.Open, ex)
				trades = append(trades, trade)
				realized = trade.PnL
				e.log.Debug("position closed",
					"reason", trade.ExitLabel,
					"exit", trade.ExitPrice,
					"pnl", trade.PnL,
					"pnl_pct", trade.PnLPct,
				)
			}
		} else if i+1 < len(bars)-1 {
			// No entries fill at the final bar: the forced end-of-period
			// close would exit on the same bar the position entered.
			sig := strategy.Evaluate(signalBar, cfg.SignalType)
			if sig == domain.SignalBuy || sig == domain.SignalSell {
				if trk.open(sig, execBar) {
					e.log.Debug("position opened",
						"side", trk.pos.Side,
						"entry", trk.pos.EntryPrice,
						"shares", trk.pos.Shares,
						"stop", trk.pos.StopLossPrice,
					)
				}
			}
		}

		curve = append(curve, curve[len(curve)-1]+realized)
	}

	// Force-close any position still open at the final bar's Close, falling
	// back to the latest usable bar when the final one is malformed.
	if trk.inPosition() {
		final := lastUsable(bars)
		trade := trk.close(final, final.Close, exit{
			reason: domain.ExitEndOfPeriod,
			label:  string(domain.ExitEndOfPeriod),
		})
		trades = append(trades, trade)
		curve[len(curve)-1] += trade.PnL
		e.log.Debug("position force-closed at end of period",
			"exit", trade.ExitPrice,
			"pnl", trade.PnL,
		)
	}

	stats := ComputeStats(trades, curve)
	e.log.Info("backtest complete",
		"bars", len(bars),
		"trades", stats.TotalTrades,
		"total_return_pct", stats.TotalReturn,
	)

	return &Result{Trades: trades, EquityCurve: curve, Stats: stats}, nil
}

// lastUsable returns the latest bar that passes validation. A position can
// only exist after a validated execution bar, so the scan always finds one
// while a position is open.
func lastUsable(bars []domain.Bar) *domain.Bar {
	for i := len(bars) - 1; i > 0; i-- {
		if bars[i].Validate() == nil {
			return &bars[i]
		}
	}
	return &bars[0]
}
