package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"backlab/internal/domain"
	"backlab/internal/indicators"
	"backlab/internal/util"
)

// Compile-time interface check.
var _ Provider = (*AlpacaProvider)(nil)

// AlpacaProvider fetches OHLCV bars from the Alpaca market-data API and
// annotates them with technical indicators before returning. API calls are
// rate limited and retried with backoff.
type AlpacaProvider struct {
	client  *marketdata.Client
	feed    string
	limiter *util.RateLimiter
	log     *slog.Logger
}

// NewAlpacaProvider creates an AlpacaProvider with the given credentials.
// dataURL and feed may be empty to use the SDK defaults ("iex" feed).
func NewAlpacaProvider(apiKey, apiSecret, dataURL, feed string, rateLimitPerMin int) *AlpacaProvider {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	if feed == "" {
		feed = "iex"
	}
	if rateLimitPerMin <= 0 {
		rateLimitPerMin = 200
	}

	return &AlpacaProvider{
		client:  marketdata.NewClient(opts),
		feed:    feed,
		limiter: util.NewRateLimiter(rateLimitPerMin),
		log:     slog.Default().With("component", "marketdata"),
	}
}

// Fetch retrieves bars for symbol over the lookback period at the given
// interval and annotates them with indicators. An unknown symbol yields an
// empty slice, not an error.
func (p *AlpacaProvider) Fetch(ctx context.Context, symbol, period, interval string) ([]domain.Bar, error) {
	now := time.Now().UTC()
	start, err := parsePeriod(period, now)
	if err != nil {
		return nil, err
	}
	tf, err := parseInterval(interval)
	if err != nil {
		return nil, err
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	symbol = strings.ToUpper(symbol)
	var alpacaBars []marketdata.Bar
	err = util.Retry(ctx, 3, time.Second, func() error {
		var fetchErr error
		alpacaBars, fetchErr = p.client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: tf,
			Start:     start,
			End:       now,
			Feed:      marketdata.Feed(p.feed),
		})
		return fetchErr
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", symbol, err)
	}

	bars := make([]domain.Bar, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		bars = append(bars, domain.Bar{
			Symbol:    symbol,
			Timestamp: ab.Timestamp,
			Open:      ab.Open,
			High:      ab.High,
			Low:       ab.Low,
			Close:     ab.Close,
			Volume:    int64(ab.Volume),
		})
	}
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})

	indicators.Annotate(bars)
	p.log.Debug("fetched bars", "symbol", symbol, "period", period, "interval", interval, "bars", len(bars))
	return bars, nil
}

// parseInterval converts a bar-width string into an Alpaca timeframe.
// Supported forms: "1d", "1h", "1m", and multiples like "15m" or "4h".
func parseInterval(interval string) (marketdata.TimeFrame, error) {
	switch interval {
	case "1d":
		return marketdata.OneDay, nil
	case "1h":
		return marketdata.OneHour, nil
	case "1m":
		return marketdata.OneMin, nil
	}

	var unit marketdata.TimeFrameUnit
	switch {
	case strings.HasSuffix(interval, "m"):
		unit = marketdata.Min
	case strings.HasSuffix(interval, "h"):
		unit = marketdata.Hour
	case strings.HasSuffix(interval, "d"):
		unit = marketdata.Day
	default:
		return marketdata.TimeFrame{}, fmt.Errorf("unsupported interval %q", interval)
	}

	n, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || n <= 0 {
		return marketdata.TimeFrame{}, fmt.Errorf("unsupported interval %q", interval)
	}
	return marketdata.NewTimeFrame(n, unit), nil
}
