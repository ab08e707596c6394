package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"backlab/internal/backtest"
	"backlab/internal/config"
	"backlab/internal/marketdata"
	"backlab/internal/report"
	"backlab/internal/store"
	"backlab/internal/strategy"
	"backlab/internal/util"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: backlab <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version                              Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  backtest <strategy> <symbol> [intv]  Run a backtest\n")
		fmt.Fprintf(os.Stderr, "  strategies list                      List saved strategies\n")
		fmt.Fprintf(os.Stderr, "  strategies show <name>               Print a strategy document\n")
		fmt.Fprintf(os.Stderr, "  strategies save <name> <file>        Save a strategy from a YAML/JSON file\n")
		fmt.Fprintf(os.Stderr, "  strategies delete <name>             Delete a strategy\n")
		fmt.Fprintf(os.Stderr, "  fetch <symbol> [period] [intv]       Fetch and cache annotated bars\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "backlab: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	switch command {
	case "version":
		fmt.Printf("backlab %s\n", version)
		return nil
	case "backtest":
		return cmdBacktest(args)
	case "strategies":
		return cmdStrategies(args)
	case "fetch":
		return cmdFetch(args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

// app bundles the wired collaborators a CLI command needs.
type app struct {
	cfg        *config.Config
	strategies *store.SQLiteStrategyStore
	provider   marketdata.Provider
}

func newApp() (*app, error) {
	cfgPath := "config/backlab.yaml"
	if p := os.Getenv("BACKLAB_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", cfgPath, err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	strategies, err := store.NewSQLiteStrategyStore(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("opening strategy store: %w", err)
	}

	provider := marketdata.NewCachedProvider(
		marketdata.NewAlpacaProvider(
			cfg.Alpaca.APIKey,
			cfg.Alpaca.APISecret,
			cfg.Alpaca.DataURL,
			cfg.Alpaca.Feed,
			cfg.Alpaca.RateLimitPerMin,
		),
		store.NewParquetCache(cfg.Storage.DataDir),
	)

	return &app{cfg: cfg, strategies: strategies, provider: provider}, nil
}

func (a *app) close() {
	a.strategies.Close()
}

func cmdBacktest(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: backlab backtest <strategy> <symbol> [interval]")
	}
	name, symbol := args[0], strings.ToUpper(args[1])

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	interval := a.cfg.Backtest.Interval
	if len(args) > 2 {
		interval = args[2]
	}

	bt := backtest.NewBacktester(a.provider, a.strategies, nil)
	res, err := bt.Run(context.Background(), name, symbol, a.cfg.Backtest.Period, interval)
	if err != nil {
		return err
	}

	fmt.Printf("Backtest: %s on %s (%s, %s)\n\n", name, symbol, a.cfg.Backtest.Period, interval)
	report.Render(os.Stdout, res)
	report.RenderTrades(os.Stdout, res.Trades)
	return nil
}

func cmdStrategies(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: backlab strategies <list|show|save|delete> ...")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	ctx := context.Background()

	switch args[0] {
	case "list":
		names, err := a.strategies.List(ctx)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("no saved strategies")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil

	case "show":
		if len(args) < 2 {
			return fmt.Errorf("usage: backlab strategies show <name>")
		}
		cfg, err := a.strategies.Load(ctx, args[1])
		if err != nil {
			return err
		}
		doc, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(doc))
		return nil

	case "save":
		if len(args) < 3 {
			return fmt.Errorf("usage: backlab strategies save <name> <file>")
		}
		cfg, err := loadStrategyFile(args[2])
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := a.strategies.Save(ctx, args[1], cfg); err != nil {
			return err
		}
		fmt.Printf("saved strategy %q\n", args[1])
		return nil

	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: backlab strategies delete <name>")
		}
		if err := a.strategies.Delete(ctx, args[1]); err != nil {
			return err
		}
		fmt.Printf("deleted strategy %q\n", args[1])
		return nil

	default:
		return fmt.Errorf("unknown strategies subcommand: %s", args[0])
	}
}

func cmdFetch(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: backlab fetch <symbol> [period] [interval]")
	}
	symbol := strings.ToUpper(args[0])

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	period := a.cfg.Backtest.Period
	interval := a.cfg.Backtest.Interval
	if len(args) > 1 {
		period = args[1]
	}
	if len(args) > 2 {
		interval = args[2]
	}

	bars, err := a.provider.Fetch(context.Background(), symbol, period, interval)
	if err != nil {
		return err
	}
	fmt.Printf("fetched %d bars for %s (%s, %s)\n", len(bars), symbol, period, interval)
	return nil
}

// loadStrategyFile parses a strategy configuration from a YAML or JSON file.
func loadStrategyFile(path string) (strategy.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return strategy.Config{}, err
	}

	var cfg strategy.Config
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return strategy.Config{}, fmt.Errorf("parsing strategy file %s: %w", path, err)
	}
	return cfg, nil
}
