package marketdata

import (
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

func TestParsePeriod(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		period string
		want   time.Time
	}{
		{"30d", now.AddDate(0, 0, -30)},
		{"6mo", now.AddDate(0, -6, 0)},
		{"1y", now.AddDate(-1, 0, 0)},
		{"2y", now.AddDate(-2, 0, 0)},
	}
	for _, tt := range tests {
		got, err := parsePeriod(tt.period, now)
		if err != nil {
			t.Errorf("parsePeriod(%q): %v", tt.period, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parsePeriod(%q) = %v, want %v", tt.period, got, tt.want)
		}
	}
}

func TestParsePeriodRejects(t *testing.T) {
	for _, period := range []string{"", "1w", "0d", "-3mo", "yearly", "mo"} {
		if _, err := parsePeriod(period, time.Now()); err == nil {
			t.Errorf("parsePeriod(%q) accepted an unsupported period", period)
		}
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		interval string
		want     marketdata.TimeFrame
	}{
		{"1d", marketdata.OneDay},
		{"1h", marketdata.OneHour},
		{"1m", marketdata.OneMin},
		{"15m", marketdata.NewTimeFrame(15, marketdata.Min)},
		{"4h", marketdata.NewTimeFrame(4, marketdata.Hour)},
	}
	for _, tt := range tests {
		got, err := parseInterval(tt.interval)
		if err != nil {
			t.Errorf("parseInterval(%q): %v", tt.interval, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseInterval(%q) = %v, want %v", tt.interval, got, tt.want)
		}
	}
}

func TestParseIntervalRejects(t *testing.T) {
	for _, interval := range []string{"", "d", "0m", "-1h", "1w", "daily"} {
		if _, err := parseInterval(interval); err == nil {
			t.Errorf("parseInterval(%q) accepted an unsupported interval", interval)
		}
	}
}
