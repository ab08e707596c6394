// Package indicators annotates OHLCV bar series with the technical
// indicators the signal evaluator consumes: SMA, RSI, MACD, Bollinger Bands,
// ATR, and volume SMA. All computations return slices aligned to the input
// length with NaN during the warm-up window; annotation converts NaN to nil
// so downstream consumers see "unknown", never a fake zero.
package indicators

import (
	"math"

	"backlab/internal/domain"
)

// Standard windows, matching the upstream enrichment the strategies were
// tuned against.
const (
	rsiWindow       = 14
	macdFast        = 12
	macdSlow        = 26
	macdSignal      = 9
	bollingerWindow = 20
	bollingerWidth  = 2.0
	atrWindow       = 14
	volumeWindow    = 20
)

// Annotate computes all indicators over the series and fills each bar's
// Indicators struct in place. Bars must be in ascending timestamp order.
func Annotate(bars []domain.Bar) {
	n := len(bars)
	if n == 0 {
		return
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i := range bars {
		closes[i] = bars[i].Close
		highs[i] = bars[i].High
		lows[i] = bars[i].Low
		volumes[i] = float64(bars[i].Volume)
	}

	sma20 := SMA(closes, 20)
	sma50 := SMA(closes, 50)
	sma200 := SMA(closes, 200)
	rsi := RSI(closes, rsiWindow)
	macd, signal := MACD(closes, macdFast, macdSlow, macdSignal)
	bbUpper, bbMiddle, bbLower := Bollinger(closes, bollingerWindow, bollingerWidth)
	atr := ATR(highs, lows, closes, atrWindow)
	volSMA := SMA(volumes, volumeWindow)

	for i := range bars {
		bars[i].Indicators = domain.Indicators{
			RSI:        optional(rsi[i]),
			MACD:       optional(macd[i]),
			MACDSignal: optional(signal[i]),
			SMA20:      optional(sma20[i]),
			SMA50:      optional(sma50[i]),
			SMA200:     optional(sma200[i]),
			BBUpper:    optional(bbUpper[i]),
			BBMiddle:   optional(bbMiddle[i]),
			BBLower:    optional(bbLower[i]),
			ATR:        optional(atr[i]),
			VolumeSMA:  optional(volSMA[i]),
		}
	}
}

// optional converts a NaN warm-up value to a nil pointer.
func optional(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// SMA is the simple moving average over the last p points.
func SMA(x []float64, p int) []float64 {
	out := nanSlice(len(x))
	if p <= 0 {
		return out
	}
	var sum float64
	for i := range x {
		sum += x[i]
		if i >= p {
			sum -= x[i-p]
		}
		if i >= p-1 {
			out[i] = sum / float64(p)
		}
	}
	return out
}

// EMA is the exponential moving average with smoothing 2/(p+1), seeded with
// the SMA of the first p points.
func EMA(x []float64, p int) []float64 {
	out := nanSlice(len(x))
	if p <= 0 || len(x) < p {
		return out
	}
	var seed float64
	for i := 0; i < p; i++ {
		seed += x[i]
	}
	out[p-1] = seed / float64(p)

	k := 2.0 / float64(p+1)
	for i := p; i < len(x); i++ {
		out[i] = (x[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// RSI is the Relative Strength Index with Wilder smoothing, bounded [0, 100].
func RSI(closes []float64, p int) []float64 {
	out := nanSlice(len(closes))
	if p <= 0 || len(closes) <= p {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= p; i++ {
		diff := closes[i] - closes[i-1]
		if diff > 0 {
			avgGain += diff
		} else {
			avgLoss -= diff
		}
	}
	avgGain /= float64(p)
	avgLoss /= float64(p)
	out[p] = rsiValue(avgGain, avgLoss)

	for i := p + 1; i < len(closes); i++ {
		diff := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if diff > 0 {
			gain = diff
		} else {
			loss = -diff
		}
		avgGain = (avgGain*float64(p-1) + gain) / float64(p)
		avgLoss = (avgLoss*float64(p-1) + loss) / float64(p)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the MACD line (fast EMA − slow EMA) and its signal line (EMA
// of the MACD line).
func MACD(closes []float64, fast, slow, signal int) (macd, signalLine []float64) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	macd = nanSlice(len(closes))
	for i := range closes {
		macd[i] = emaFast[i] - emaSlow[i] // NaN propagates through warm-up
	}

	// The signal line starts where the MACD line has values.
	signalLine = nanSlice(len(closes))
	start := slow - 1
	if start >= len(closes) {
		return macd, signalLine
	}
	sig := EMA(macd[start:], signal)
	copy(signalLine[start:], sig)
	return macd, signalLine
}

// Bollinger returns the upper, middle, and lower Bollinger Bands: the p-bar
// SMA of closes plus/minus width standard deviations.
func Bollinger(closes []float64, p int, width float64) (upper, middle, lower []float64) {
	n := len(closes)
	upper, middle, lower = nanSlice(n), nanSlice(n), nanSlice(n)
	if p <= 0 {
		return
	}

	var sum, sumSq float64
	for i := 0; i < n; i++ {
		sum += closes[i]
		sumSq += closes[i] * closes[i]
		if i >= p {
			sum -= closes[i-p]
			sumSq -= closes[i-p] * closes[i-p]
		}
		if i < p-1 {
			continue
		}
		mean := sum / float64(p)
		variance := sumSq/float64(p) - mean*mean
		if variance < 0 {
			variance = 0
		}
		std := math.Sqrt(variance)
		middle[i] = mean
		upper[i] = mean + width*std
		lower[i] = mean - width*std
	}
	return
}

// ATR is the Average True Range with Wilder smoothing.
func ATR(highs, lows, closes []float64, p int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if p <= 0 || n <= p {
		return out
	}

	tr := make([]float64, n)
	tr[0] = highs[0] - lows[0]
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	var sum float64
	for i := 0; i < p; i++ {
		sum += tr[i]
	}
	out[p-1] = sum / float64(p)
	for i := p; i < n; i++ {
		out[i] = (out[i-1]*float64(p-1) + tr[i]) / float64(p)
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
