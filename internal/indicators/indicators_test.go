package indicators

import (
	"math"
	"testing"
	"time"

	"backlab/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	got := SMA(x, 3)

	for i := 0; i < 2; i++ {
		if !math.IsNaN(got[i]) {
			t.Errorf("SMA[%d] = %v, want NaN during warm-up", i, got[i])
		}
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if !almostEqual(got[i+2], w) {
			t.Errorf("SMA[%d] = %v, want %v", i+2, got[i+2], w)
		}
	}
}

func TestSMAWindowLargerThanSeries(t *testing.T) {
	got := SMA([]float64{1, 2}, 5)
	for i, v := range got {
		if !math.IsNaN(v) {
			t.Errorf("SMA[%d] = %v, want NaN", i, v)
		}
	}
}

func TestEMA(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	got := EMA(x, 3)

	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Error("EMA warm-up values are not NaN")
	}
	// Seeded with SMA(1,2,3) = 2, then k = 0.5.
	if !almostEqual(got[2], 2) {
		t.Errorf("EMA[2] = %v, want 2 (SMA seed)", got[2])
	}
	if !almostEqual(got[3], 3) {
		t.Errorf("EMA[3] = %v, want 3", got[3])
	}
	if !almostEqual(got[4], 4) {
		t.Errorf("EMA[4] = %v, want 4", got[4])
	}
}

func TestRSIAllGains(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	got := RSI(closes, 14)

	for i := 0; i < 14; i++ {
		if !math.IsNaN(got[i]) {
			t.Errorf("RSI[%d] = %v, want NaN during warm-up", i, got[i])
		}
	}
	for i := 14; i < len(got); i++ {
		if got[i] != 100 {
			t.Errorf("RSI[%d] = %v, want 100 for a pure uptrend", i, got[i])
		}
	}
}

func TestRSIBounded(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/2)
	}
	got := RSI(closes, 14)

	for i := 14; i < len(got); i++ {
		if got[i] < 0 || got[i] > 100 {
			t.Errorf("RSI[%d] = %v, out of [0, 100]", i, got[i])
		}
	}
}

func TestBollingerConstantSeries(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 50
	}
	upper, middle, lower := Bollinger(closes, 20, 2.0)

	if !math.IsNaN(upper[18]) {
		t.Errorf("upper[18] = %v, want NaN during warm-up", upper[18])
	}
	for i := 19; i < len(closes); i++ {
		if !almostEqual(middle[i], 50) || !almostEqual(upper[i], 50) || !almostEqual(lower[i], 50) {
			t.Errorf("bands[%d] = %v/%v/%v, want 50/50/50 on a flat series",
				i, upper[i], middle[i], lower[i])
		}
	}
}

func TestBollingerOrdering(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + 5*math.Sin(float64(i))
	}
	upper, middle, lower := Bollinger(closes, 20, 2.0)

	for i := 19; i < len(closes); i++ {
		if !(lower[i] <= middle[i] && middle[i] <= upper[i]) {
			t.Errorf("band ordering violated at %d: %v / %v / %v", i, lower[i], middle[i], upper[i])
		}
	}
}

func TestMACDWarmup(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.5
	}
	macd, signal := MACD(closes, 12, 26, 9)

	if !math.IsNaN(macd[24]) {
		t.Errorf("macd[24] = %v, want NaN before the slow EMA is seeded", macd[24])
	}
	if math.IsNaN(macd[25]) {
		t.Error("macd[25] is NaN, want the first defined value")
	}
	// Signal line needs 9 MACD values: first defined at index 25+9-1.
	if !math.IsNaN(signal[32]) {
		t.Errorf("signal[32] = %v, want NaN", signal[32])
	}
	if math.IsNaN(signal[33]) {
		t.Error("signal[33] is NaN, want the first defined value")
	}
	// A steady uptrend keeps the fast EMA above the slow one.
	for i := 30; i < len(closes); i++ {
		if macd[i] <= 0 {
			t.Errorf("macd[%d] = %v, want > 0 in an uptrend", i, macd[i])
		}
	}
}

func TestATRConstantRange(t *testing.T) {
	n := 20
	highs, lows, closes := make([]float64, n), make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i], lows[i], closes[i] = 102, 98, 100
	}
	got := ATR(highs, lows, closes, 14)

	if !math.IsNaN(got[12]) {
		t.Errorf("ATR[12] = %v, want NaN during warm-up", got[12])
	}
	for i := 13; i < n; i++ {
		if !almostEqual(got[i], 4) {
			t.Errorf("ATR[%d] = %v, want 4 for a constant 4-point range", i, got[i])
		}
	}
}

func TestAnnotate(t *testing.T) {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, 40)
	for i := range bars {
		px := 100 + 5*math.Sin(float64(i)/3)
		bars[i] = domain.Bar{
			Symbol:    "TEST",
			Timestamp: base.AddDate(0, 0, i),
			Open:      px, High: px + 1, Low: px - 1, Close: px,
			Volume: 1000,
		}
	}

	Annotate(bars)

	// Warm-up bars expose nil, never a fake zero.
	if bars[0].Indicators.RSI != nil || bars[0].Indicators.SMA20 != nil {
		t.Error("bar 0 has indicator values during warm-up, want nil")
	}
	last := bars[len(bars)-1].Indicators
	if last.RSI == nil || last.SMA20 == nil || last.MACD == nil ||
		last.MACDSignal == nil || last.BBUpper == nil || last.BBLower == nil ||
		last.ATR == nil || last.VolumeSMA == nil {
		t.Fatalf("final bar missing indicator values: %+v", last)
	}
	// 40 bars is short of the 50- and 200-bar SMAs.
	if last.SMA50 != nil || last.SMA200 != nil {
		t.Error("long SMAs defined on a 40-bar series, want nil")
	}
	if *last.VolumeSMA != 1000 {
		t.Errorf("VolumeSMA = %v, want 1000 for constant volume", *last.VolumeSMA)
	}
}

func TestAnnotateEmpty(t *testing.T) {
	Annotate(nil) // must not panic
}
