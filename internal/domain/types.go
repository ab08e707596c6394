// Package domain defines the core types shared across the backlab platform:
// annotated OHLCV bars, trade signals, positions, and closed trades.
package domain

import (
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Market data
// ---------------------------------------------------------------------------

// Indicators holds the optional technical-indicator annotations attached to a
// bar by the upstream enrichment step. A nil field means the indicator could
// not be computed for that bar (not enough history, missing input data);
// consumers must treat nil as "unknown", never as zero.
type Indicators struct {
	RSI        *float64 // Relative Strength Index, [0, 100]
	MACD       *float64
	MACDSignal *float64
	SMA20      *float64
	SMA50      *float64
	SMA200     *float64
	BBUpper    *float64
	BBMiddle   *float64
	BBLower    *float64
	ATR        *float64 // Average True Range, >= 0
	VolumeSMA  *float64 // >= 0
}

// Bar is a single OHLCV observation for a fixed time interval, optionally
// annotated with technical indicators. Bars are immutable once produced by a
// market-data provider.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	Indicators Indicators
}

// Validate reports whether the bar's raw price fields are usable. Indicator
// fields are optional and not checked here.
func (b *Bar) Validate() error {
	if b.Timestamp.IsZero() {
		return fmt.Errorf("bar %s: zero timestamp", b.Symbol)
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("bar %s @ %s: non-positive price", b.Symbol, b.Timestamp.Format("2006-01-02"))
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar %s @ %s: negative volume", b.Symbol, b.Timestamp.Format("2006-01-02"))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Signals
// ---------------------------------------------------------------------------

// Signal is the output of evaluating one bar against a strategy's entry rule.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// ---------------------------------------------------------------------------
// Positions and trades
// ---------------------------------------------------------------------------

// Side is the direction of a position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// ExitReason records which condition closed a trade.
type ExitReason string

const (
	ExitStopLoss       ExitReason = "stop_loss"
	ExitTakeProfit     ExitReason = "take_profit"
	ExitSignalReversal ExitReason = "signal_reversal"
	ExitEndOfPeriod    ExitReason = "end_of_period"
)

// Position is a single open position inside a backtest run. At most one
// Position exists at any simulated time.
type Position struct {
	Side             Side
	EntryPrice       float64
	EntryTime        time.Time
	Shares           int64
	StopLossPrice    float64
	TakeProfitLevels []float64 // percent thresholds, ascending
}

// PnL returns the absolute profit and the percent profit of the position if
// it were closed at the given price.
func (p *Position) PnL(exitPrice float64) (pnl, pnlPct float64) {
	diff := exitPrice - p.EntryPrice
	if p.Side == SideShort {
		diff = -diff
	}
	return diff * float64(p.Shares), diff / p.EntryPrice * 100
}

// ClosedTrade is an immutable record of one completed round trip. Trades are
// appended to the trade log in exit-time order.
type ClosedTrade struct {
	Symbol     string     `json:"symbol"`
	Side       Side       `json:"side"`
	EntryTime  time.Time  `json:"entry_time"`
	ExitTime   time.Time  `json:"exit_time"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	Shares     int64      `json:"shares"`
	PnL        float64    `json:"pnl"`
	PnLPct     float64    `json:"pnl_pct"`
	ExitReason ExitReason `json:"exit_reason"`
	ExitLabel  string     `json:"exit_label"` // e.g. "take_profit_8%"
}
