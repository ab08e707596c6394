// Package httpapi provides the backlab HTTP REST API: running backtests,
// managing stored strategies, and serving annotated bar data as JSON.
package httpapi

import (
	"time"

	"backlab/internal/backtest"
	"backlab/internal/domain"
)

// BacktestRequest is the body of POST /api/backtest. Period and Interval
// fall back to the server's configured defaults when empty.
type BacktestRequest struct {
	Strategy string `json:"strategy"`
	Symbol   string `json:"symbol"`
	Period   string `json:"period,omitempty"`
	Interval string `json:"interval,omitempty"`
}

// BacktestResponse is the result document for a backtest run.
type BacktestResponse struct {
	Strategy    string               `json:"strategy"`
	Symbol      string               `json:"symbol"`
	Trades      []domain.ClosedTrade `json:"trades"`
	EquityCurve []float64            `json:"equity_curve"`
	Stats       backtest.Report      `json:"stats"`
}

// BarJSON is the JSON representation of one annotated bar. Indicator fields
// are omitted while unknown (warm-up window).
type BarJSON struct {
	Timestamp  time.Time `json:"timestamp"`
	Open       float64   `json:"open"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Close      float64   `json:"close"`
	Volume     int64     `json:"volume"`
	RSI        *float64  `json:"rsi,omitempty"`
	MACD       *float64  `json:"macd,omitempty"`
	MACDSignal *float64  `json:"macd_signal,omitempty"`
	SMA20      *float64  `json:"sma_20,omitempty"`
	SMA50      *float64  `json:"sma_50,omitempty"`
	SMA200     *float64  `json:"sma_200,omitempty"`
	BBUpper    *float64  `json:"bb_upper,omitempty"`
	BBMiddle   *float64  `json:"bb_middle,omitempty"`
	BBLower    *float64  `json:"bb_lower,omitempty"`
	ATR        *float64  `json:"atr,omitempty"`
	VolumeSMA  *float64  `json:"volume_sma,omitempty"`
}

func barToJSON(b *domain.Bar) BarJSON {
	return BarJSON{
		Timestamp:  b.Timestamp,
		Open:       b.Open,
		High:       b.High,
		Low:        b.Low,
		Close:      b.Close,
		Volume:     b.Volume,
		RSI:        b.Indicators.RSI,
		MACD:       b.Indicators.MACD,
		MACDSignal: b.Indicators.MACDSignal,
		SMA20:      b.Indicators.SMA20,
		SMA50:      b.Indicators.SMA50,
		SMA200:     b.Indicators.SMA200,
		BBUpper:    b.Indicators.BBUpper,
		BBMiddle:   b.Indicators.BBMiddle,
		BBLower:    b.Indicators.BBLower,
		ATR:        b.Indicators.ATR,
		VolumeSMA:  b.Indicators.VolumeSMA,
	}
}
