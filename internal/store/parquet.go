package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"backlab/internal/domain"
)

// Compile-time interface check.
var _ BarCache = (*ParquetCache)(nil)

// ParquetCache implements BarCache using Parquet files on disk, one file per
// (symbol, interval) pair.
type ParquetCache struct {
	DataDir string
}

// NewParquetCache creates a ParquetCache rooted at the given data directory.
func NewParquetCache(dataDir string) *ParquetCache {
	return &ParquetCache{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record type (on-disk schema)
// ---------------------------------------------------------------------------

// BarRecord is the Parquet schema for annotated bar data. Indicator columns
// are optional: a null cell round-trips to a nil pointer, preserving the
// "indicator unknown" state across the cache.
type BarRecord struct {
	Symbol     string   `parquet:"symbol"`
	Timestamp  int64    `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open       float64  `parquet:"open"`
	High       float64  `parquet:"high"`
	Low        float64  `parquet:"low"`
	Close      float64  `parquet:"close"`
	Volume     int64    `parquet:"volume"`
	RSI        *float64 `parquet:"rsi,optional"`
	MACD       *float64 `parquet:"macd,optional"`
	MACDSignal *float64 `parquet:"macd_signal,optional"`
	SMA20      *float64 `parquet:"sma_20,optional"`
	SMA50      *float64 `parquet:"sma_50,optional"`
	SMA200     *float64 `parquet:"sma_200,optional"`
	BBUpper    *float64 `parquet:"bb_upper,optional"`
	BBMiddle   *float64 `parquet:"bb_middle,optional"`
	BBLower    *float64 `parquet:"bb_lower,optional"`
	ATR        *float64 `parquet:"atr,optional"`
	VolumeSMA  *float64 `parquet:"volume_sma,optional"`
}

func recordFromBar(b *domain.Bar) BarRecord {
	return BarRecord{
		Symbol:     b.Symbol,
		Timestamp:  b.Timestamp.UnixMilli(),
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

func (r *BarRecord) toBar() domain.Bar {
	return domain.Bar{
		Symbol:    r.Symbol,
		Timestamp: time.UnixMilli(r.Timestamp).UTC(),
		Open:      r.Open,
		High:      r.High,
		Low:       r.Low,
		Close:     r.Close,
		Volume:    r.Volume,
		Indicators: domain.Indicators{
			RSI:        r.RSI,
			MACD:       r.MACD,
			MACDSignal: r.MACDSignal,
			SMA20:      r.SMA20,
			SMA50:      r.SMA50,
			SMA200:     r.SMA200,
			BBUpper:    r.BBUpper,
			BBMiddle:   r.BBMiddle,
			BBLower:    r.BBLower,
			ATR:        r.ATR,
			VolumeSMA:  r.VolumeSMA,
		},
	}
}

// ---------------------------------------------------------------------------
// BarCache implementation
// ---------------------------------------------------------------------------

// WriteBars writes the series to the cache file for (symbol, interval),
// merging with any existing records on timestamp. Incoming records win.
func (s *ParquetCache) WriteBars(_ context.Context, symbol, interval string, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	records := make([]BarRecord, 0, len(bars))
	for i := range bars {
		records = append(records, recordFromBar(&bars[i]))
	}

	path := s.barPath(symbol, interval)
	existing, _ := readParquetFile[BarRecord](path)
	merged := mergeBarRecords(existing, records)

	if err := writeParquetFile(path, merged); err != nil {
		return fmt.Errorf("writing bars for %s/%s: %w", symbol, interval, err)
	}
	return nil
}

// ReadBars reads the cached series for (symbol, interval). A missing cache
// file is a miss, not an error.
func (s *ParquetCache) ReadBars(_ context.Context, symbol, interval string) ([]domain.Bar, error) {
	records, err := readParquetFile[BarRecord](s.barPath(symbol, interval))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading bars for %s/%s: %w", symbol, interval, err)
	}

	bars := make([]domain.Bar, 0, len(records))
	for i := range records {
		bars = append(bars, records[i].toBar())
	}
	return bars, nil
}

// ListSymbols lists all symbols with cached bar files.
func (s *ParquetCache) ListSymbols(_ context.Context) ([]string, error) {
	dir := filepath.Join(s.DataDir, "bars")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// barPath returns the filesystem path for a cached bar Parquet file.
// Layout: <dataDir>/bars/<SYMBOL>/<interval>.parquet
func (s *ParquetCache) barPath(symbol, interval string) string {
	return filepath.Join(s.DataDir, "bars", strings.ToUpper(symbol), interval+".parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeBarRecords deduplicates records by timestamp, preferring incoming over
// existing. Results are sorted by timestamp ascending.
func mergeBarRecords(existing, incoming []BarRecord) []BarRecord {
	seen := make(map[int64]BarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}

	merged := make([]BarRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
