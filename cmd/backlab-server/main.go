package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backlab/internal/backtest"
	"backlab/internal/config"
	"backlab/internal/httpapi"
	"backlab/internal/marketdata"
	"backlab/internal/store"
	"backlab/internal/util"
)

func main() {
	cfgPath := "config/backlab.yaml"
	if p := os.Getenv("BACKLAB_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	strategies, err := store.NewSQLiteStrategyStore(cfg.Storage.SQLitePath)
	if err != nil {
		logger.Error("opening strategy store", "path", cfg.Storage.SQLitePath, "error", err)
		os.Exit(1)
	}
	defer strategies.Close()

	cache := store.NewParquetCache(cfg.Storage.DataDir)
	provider := marketdata.NewCachedProvider(
		marketdata.NewAlpacaProvider(
			cfg.Alpaca.APIKey,
			cfg.Alpaca.APISecret,
			cfg.Alpaca.DataURL,
			cfg.Alpaca.Feed,
			cfg.Alpaca.RateLimitPerMin,
		),
		cache,
	)

	backtester := backtest.NewBacktester(provider, strategies, logger)
	api := httpapi.NewServer(backtester, strategies, provider, cfg.Backtest, logger)

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: api.Handler(),
	}

	go func() {
		logger.Info("backlab-server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
