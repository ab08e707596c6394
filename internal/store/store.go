// Package store defines storage interfaces for persisting strategy
// configurations and caching annotated bar data between backtest runs.
package store

import (
	"context"
	"errors"

	"backlab/internal/domain"
	"backlab/internal/strategy"
)

// ErrStrategyNotFound is returned by StrategyStore.Load when no configuration
// is saved under the requested name.
var ErrStrategyNotFound = errors.New("strategy not found")

// StrategyStore persists named strategy configurations as durable documents.
type StrategyStore interface {
	// Save inserts or replaces the configuration stored under name.
	Save(ctx context.Context, name string, cfg strategy.Config) error

	// Load returns the configuration stored under name, or
	// ErrStrategyNotFound.
	Load(ctx context.Context, name string) (strategy.Config, error)

	// List returns all saved strategy names in sorted order.
	List(ctx context.Context) ([]string, error)

	// Delete removes the configuration stored under name. Deleting an
	// unknown name returns ErrStrategyNotFound.
	Delete(ctx context.Context, name string) error
}

// BarCache persists annotated bar series fetched from a market-data provider
// so repeat backtests do not refetch.
type BarCache interface {
	// WriteBars persists the bar series for (symbol, interval), merging with
	// any cached series on timestamp.
	WriteBars(ctx context.Context, symbol, interval string, bars []domain.Bar) error

	// ReadBars returns the cached series for (symbol, interval) in ascending
	// timestamp order. A cache miss returns an empty slice, not an error.
	ReadBars(ctx context.Context, symbol, interval string) ([]domain.Bar, error)

	// ListSymbols returns all symbols with cached bars, sorted.
	ListSymbols(ctx context.Context) ([]string, error)
}
