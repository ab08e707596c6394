// Package marketdata provides annotated OHLCV bar series to the backtest
// engine. A Provider fetches raw bars for a symbol over a lookback period and
// returns them enriched with technical indicators.
package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"backlab/internal/domain"
)

// Provider supplies annotated bar series. Implementations may return an empty
// or nil slice when no data is available for the symbol; callers must handle
// both.
type Provider interface {
	// Fetch returns bars for symbol covering the lookback period at the
	// given interval, annotated with indicators, in ascending timestamp
	// order. period is a lookback like "1y", "6mo", "30d"; interval is a bar
	// width like "1d", "1h", "15m".
	Fetch(ctx context.Context, symbol, period, interval string) ([]domain.Bar, error)
}

// parsePeriod converts a lookback period string ("30d", "6mo", "1y") into a
// start time relative to now.
func parsePeriod(period string, now time.Time) (time.Time, error) {
	var unit string
	switch {
	case strings.HasSuffix(period, "mo"):
		unit = "mo"
	case strings.HasSuffix(period, "d"):
		unit = "d"
	case strings.HasSuffix(period, "y"):
		unit = "y"
	default:
		return time.Time{}, fmt.Errorf("unsupported period %q", period)
	}

	n, err := strconv.Atoi(strings.TrimSuffix(period, unit))
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("unsupported period %q", period)
	}

	switch unit {
	case "d":
		return now.AddDate(0, 0, -n), nil
	case "mo":
		return now.AddDate(0, -n, 0), nil
	default:
		return now.AddDate(-n, 0, 0), nil
	}
}
