// Package strategy defines the declarative strategy configuration record and
// the signal evaluator that maps annotated bars to trade signals.
package strategy

import (
	"fmt"
	"sort"
)

// SignalType selects which entry/exit rule set a strategy uses.
type SignalType string

const (
	SignalMACDMomentum SignalType = "macd_momentum"
	SignalRSIReversal  SignalType = "rsi_reversal"
	SignalBreakout     SignalType = "breakout"
)

// TakeProfitType selects between a single fixed target and a ladder of
// ascending levels.
type TakeProfitType string

const (
	TakeProfitFixed  TakeProfitType = "fixed"
	TakeProfitLevels TakeProfitType = "levels"
)

// ---------------------------------------------------------------------------
// Configuration record
// ---------------------------------------------------------------------------

// Config is a validated, immutable description of one trading strategy. It is
// the document persisted in the strategy store and passed by value into the
// backtest engine — no global state.
type Config struct {
	SignalType     SignalType     `json:"signal_type" yaml:"signal_type"`
	Portfolio      Portfolio      `json:"portfolio" yaml:"portfolio"`
	PositionSizing PositionSizing `json:"position_sizing" yaml:"position_sizing"`
	Trade          TradeRules     `json:"trade" yaml:"trade"`
}

// Portfolio holds account-level parameters.
type Portfolio struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
}

// PositionSizing controls how much capital is risked per trade.
type PositionSizing struct {
	MaxRiskPerTradePct float64 `json:"max_risk_per_trade_pct" yaml:"max_risk_per_trade_pct"`
}

// TradeRules holds the exit policy for open positions.
type TradeRules struct {
	StopLoss   StopLoss   `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit TakeProfit `json:"take_profit" yaml:"take_profit"`
}

// StopLoss is a fixed percent stop below (long) or above (short) the entry.
type StopLoss struct {
	ValuePct float64 `json:"value_pct" yaml:"value_pct"`
}

// TakeProfit is either a single fixed target (ValuePct) or a ladder of
// ascending percent levels (ValuesPct).
type TakeProfit struct {
	Type      TakeProfitType `json:"type" yaml:"type"`
	ValuePct  float64        `json:"value_pct,omitempty" yaml:"value_pct,omitempty"`
	ValuesPct []float64      `json:"values_pct,omitempty" yaml:"values_pct,omitempty"`
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// ConfigError reports a malformed or missing strategy configuration field.
// It is fatal to the run that used the configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("strategy config: %s: %s", e.Field, e.Reason)
}

// Validate checks every invariant the backtest engine relies on. It returns a
// *ConfigError naming the first offending field, or nil.
func (c *Config) Validate() error {
	switch c.SignalType {
	case SignalMACDMomentum, SignalRSIReversal, SignalBreakout:
	default:
		return &ConfigError{Field: "signal_type", Reason: fmt.Sprintf("unknown signal type %q", c.SignalType)}
	}

	if c.Portfolio.InitialCapital <= 0 {
		return &ConfigError{Field: "portfolio.initial_capital", Reason: "must be > 0"}
	}

	if r := c.PositionSizing.MaxRiskPerTradePct; r <= 0 || r > 100 {
		return &ConfigError{Field: "position_sizing.max_risk_per_trade_pct", Reason: "must be in (0, 100]"}
	}

	if c.Trade.StopLoss.ValuePct <= 0 {
		return &ConfigError{Field: "trade.stop_loss.value_pct", Reason: "must be > 0"}
	}

	switch c.Trade.TakeProfit.Type {
	case TakeProfitFixed:
		if c.Trade.TakeProfit.ValuePct <= 0 {
			return &ConfigError{Field: "trade.take_profit.value_pct", Reason: "must be > 0"}
		}
	case TakeProfitLevels:
		if len(c.Trade.TakeProfit.ValuesPct) == 0 {
			return &ConfigError{Field: "trade.take_profit.values_pct", Reason: "must list at least one level"}
		}
		for _, v := range c.Trade.TakeProfit.ValuesPct {
			if v <= 0 {
				return &ConfigError{Field: "trade.take_profit.values_pct", Reason: "every level must be > 0"}
			}
		}
	default:
		return &ConfigError{Field: "trade.take_profit.type", Reason: fmt.Sprintf("unknown take-profit type %q", c.Trade.TakeProfit.Type)}
	}

	return nil
}

// TakeProfitLevels returns the configured take-profit thresholds as an
// ascending slice, regardless of whether the config uses a single fixed
// target or a level ladder.
func (c *Config) TakeProfitLevels() []float64 {
	var levels []float64
	if c.Trade.TakeProfit.Type == TakeProfitLevels {
		levels = append(levels, c.Trade.TakeProfit.ValuesPct...)
	} else {
		levels = []float64{c.Trade.TakeProfit.ValuePct}
	}
	sort.Float64s(levels)
	return levels
}
