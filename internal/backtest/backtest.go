package backtest

import (
	"context"
	"fmt"
	"log/slog"

	"backlab/internal/marketdata"
	"backlab/internal/store"
)

// Backtester replays historical bar data through a named strategy and
// computes performance metrics. It wires the market-data provider and the
// strategy store to the engine; the engine itself stays free of I/O.
type Backtester struct {
	provider   marketdata.Provider
	strategies store.StrategyStore
	engine     *Engine
	log        *slog.Logger
}

// NewBacktester creates a Backtester that reads bars from the given provider
// and strategy configurations from the given store.
func NewBacktester(provider marketdata.Provider, strategies store.StrategyStore, log *slog.Logger) *Backtester {
	if log == nil {
		log = slog.Default()
	}
	return &Backtester{
		provider:   provider,
		strategies: strategies,
		engine:     NewEngine(log),
		log:        log.With("component", "backtester"),
	}
}

// Run executes a backtest for the named strategy on one symbol over the
// given lookback period and bar interval. It fails fast on an unknown
// strategy name or invalid configuration; an empty bar series produces the
// well-defined zero-trades result.
func (bt *Backtester) Run(ctx context.Context, strategyName, symbol, period, interval string) (*Result, error) {
	cfg, err := bt.strategies.Load(ctx, strategyName)
	if err != nil {
		return nil, err
	}

	bars, err := bt.provider.Fetch(ctx, symbol, period, interval)
	if err != nil {
		return nil, fmt.Errorf("fetching bars for %s: %w", symbol, err)
	}

	bt.log.Info("running backtest",
		"strategy", strategyName,
		"symbol", symbol,
		"period", period,
		"interval", interval,
		"bars", len(bars),
	)
	return bt.engine.Run(bars, cfg)
}
