package strategy

import (
	"backlab/internal/domain"
)

// Evaluate maps one annotated bar to a trade signal under the given signal
// type. It is a pure function of the bar: missing indicator fields always
// evaluate to hold, never an error. Unknown signal types are rejected by
// Config.Validate before a backtest starts, so they also evaluate to hold
// here rather than panicking mid-run.
func Evaluate(bar *domain.Bar, signalType SignalType) domain.Signal {
	switch signalType {
	case SignalMACDMomentum:
		return evalMACDMomentum(bar)
	case SignalRSIReversal:
		return evalRSIReversal(bar)
	case SignalBreakout:
		return evalBreakout(bar)
	default:
		return domain.SignalHold
	}
}

// evalMACDMomentum signals on the MACD histogram confirmed by the MACD sign:
// buy when the histogram is positive and MACD is above zero, sell when the
// histogram is negative and MACD is below zero.
func evalMACDMomentum(bar *domain.Bar) domain.Signal {
	ind := &bar.Indicators
	if ind.MACD == nil || ind.MACDSignal == nil {
		return domain.SignalHold
	}
	hist := *ind.MACD - *ind.MACDSignal
	switch {
	case hist > 0 && *ind.MACD > 0:
		return domain.SignalBuy
	case hist < 0 && *ind.MACD < 0:
		return domain.SignalSell
	default:
		return domain.SignalHold
	}
}

// evalRSIReversal buys oversold (RSI < 30) and sells overbought (RSI > 70).
func evalRSIReversal(bar *domain.Bar) domain.Signal {
	rsi := bar.Indicators.RSI
	if rsi == nil {
		return domain.SignalHold
	}
	switch {
	case *rsi < 30:
		return domain.SignalBuy
	case *rsi > 70:
		return domain.SignalSell
	default:
		return domain.SignalHold
	}
}

// evalBreakout signals on closes outside the Bollinger Bands.
func evalBreakout(bar *domain.Bar) domain.Signal {
	ind := &bar.Indicators
	if ind.BBUpper == nil || ind.BBLower == nil {
		return domain.SignalHold
	}
	switch {
	case bar.Close > *ind.BBUpper:
		return domain.SignalBuy
	case bar.Close < *ind.BBLower:
		return domain.SignalSell
	default:
		return domain.SignalHold
	}
}
