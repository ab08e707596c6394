package marketdata

import (
	"context"
	"log/slog"
	"time"

	"backlab/internal/domain"
	"backlab/internal/store"
)

// Compile-time interface check.
var _ Provider = (*CachedProvider)(nil)

// CachedProvider wraps a Provider with a persistent bar cache. A fetch is
// served from the cache when the cached series already covers the requested
// lookback period; otherwise it falls through to the inner provider and the
// result is written back. Cached series are served as-is — refreshing stale
// data is an explicit operation (the CLI fetch command).
type CachedProvider struct {
	inner Provider
	cache store.BarCache
	log   *slog.Logger
}

// NewCachedProvider creates a CachedProvider over the given provider and
// cache.
func NewCachedProvider(inner Provider, cache store.BarCache) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		cache: cache,
		log:   slog.Default().With("component", "marketdata-cache"),
	}
}

// Fetch returns bars for symbol, preferring the cache over the inner
// provider. Cache read/write failures degrade to a plain fetch rather than
// failing the request.
func (p *CachedProvider) Fetch(ctx context.Context, symbol, period, interval string) ([]domain.Bar, error) {
	start, err := parsePeriod(period, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	cached, err := p.cache.ReadBars(ctx, symbol, interval)
	if err != nil {
		p.log.Warn("bar cache read failed", "symbol", symbol, "error", err)
	} else if covers(cached, start) {
		p.log.Debug("cache hit", "symbol", symbol, "interval", interval, "bars", len(cached))
		return clip(cached, start), nil
	}

	bars, err := p.inner.Fetch(ctx, symbol, period, interval)
	if err != nil {
		return nil, err
	}
	if len(bars) > 0 {
		if err := p.cache.WriteBars(ctx, symbol, interval, bars); err != nil {
			p.log.Warn("bar cache write failed", "symbol", symbol, "error", err)
		}
	}
	return bars, nil
}

// covers reports whether the cached series reaches back to the requested
// start. An empty cache covers nothing.
func covers(bars []domain.Bar, start time.Time) bool {
	return len(bars) > 0 && !bars[0].Timestamp.After(start)
}

// clip drops cached bars older than the requested start.
func clip(bars []domain.Bar, start time.Time) []domain.Bar {
	for i := range bars {
		if !bars[i].Timestamp.Before(start) {
			return bars[i:]
		}
	}
	return nil
}
