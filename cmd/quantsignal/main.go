package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"quantsignal/internal/config"
	"quantsignal/internal/gateway/binance"
	"quantsignal/internal/gateway/yahoo"
	"quantsignal/internal/logger"
	"quantsignal/internal/market"
	"quantsignal/internal/options"
	"quantsignal/internal/report"
	"quantsignal/internal/service"
	"quantsignal/internal/store"
	"quantsignal/internal/transport/http/api"
)

func main() {
	var (
		cfgPath  = flag.String("config", "quantsignal.toml", "path to config file")
		writeCfg = flag.Bool("write-config", false, "write the effective config to the -config path and exit")
		symbol   = flag.String("symbol", "", "analyze one symbol and print the snapshot instead of serving")
		side     = flag.String("side", "call", "option side for -chain (call or put)")
		chain    = flag.Bool("chain", false, "with -symbol, rank the nearest option chain")
		minDTE   = flag.Int("min-dte", 7, "minimum days to expiration for -chain")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *writeCfg {
		if err := config.Save(*cfgPath, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *cfgPath)
		return
	}
	logger.Init(cfg.Log.Level)

	source, err := newSource(cfg)
	if err != nil {
		logger.Errorf("init source: %v", err)
		os.Exit(1)
	}
	defer source.Close()

	bars, closeStore, err := newBarStore(cfg)
	if err != nil {
		logger.Errorf("init store: %v", err)
		os.Exit(1)
	}
	defer closeStore()

	analyzer := service.NewAnalyzer(service.Params{
		Source:       source,
		BarStore:     bars,
		Indicators:   cfg.IndicatorSettings(),
		PivotWindow:  cfg.Pivot.Window,
		Resolutions:  cfg.Resolutions(),
		HistoryLimit: cfg.Source.HistoryLimit,
		MaxBars:      cfg.Store.MaxBars,
		Score:        cfg.ScoreSettings(),
		DetailRate:   cfg.Options.DetailRiskFree,
	})

	if *symbol != "" {
		runOnce(cfg, analyzer, source, *symbol, *side, *chain, *minDTE)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv, err := api.NewServer(api.ServerConfig{Addr: cfg.HTTP.Addr, Analyzer: analyzer})
	if err != nil {
		logger.Errorf("init server: %v", err)
		os.Exit(1)
	}
	if err := srv.Start(ctx); err != nil {
		logger.Errorf("server: %v", err)
		os.Exit(1)
	}
}

func newSource(cfg *config.Config) (market.Source, error) {
	switch cfg.Source.Provider {
	case "binance":
		return binance.New(binance.Config{HTTPTimeout: cfg.SourceTimeout()})
	case "yahoo", "":
		return yahoo.New(yahoo.Config{HTTPTimeout: cfg.SourceTimeout()})
	default:
		return nil, fmt.Errorf("unknown source provider %q", cfg.Source.Provider)
	}
}

func newBarStore(cfg *config.Config) (store.BarStore, func(), error) {
	if cfg.Store.Path == "" {
		return store.NewMemoryBarStore(), func() {}, nil
	}
	s, err := store.NewSQLiteBarStore(cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { s.Close() }, nil
}

// runOnce prints a one-shot snapshot (and optionally a ranked chain) to stdout.
func runOnce(cfg *config.Config, analyzer *service.Analyzer, source market.Source, symbol, side string, withChain bool, minDTE int) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rep, err := analyzer.Analyze(ctx, symbol)
	if err != nil {
		logger.Errorf("analyze %s: %v", symbol, err)
		os.Exit(1)
	}
	report.WriteSnapshotTable(os.Stdout, rep)

	if !withChain {
		return
	}
	ys, ok := source.(*yahoo.Source)
	if !ok {
		logger.Errorf("option chains require the yahoo source")
		os.Exit(1)
	}
	oc, err := ys.FetchChain(ctx, symbol, minDTE)
	if err != nil {
		logger.Errorf("fetch chain %s: %v", symbol, err)
		os.Exit(1)
	}
	typ := options.Type(side)
	contracts := oc.Calls
	if typ == options.Put {
		contracts = oc.Puts
	}
	scored, err := analyzer.RankChain(contracts, typ, oc.Underlying, oc.DTE)
	if err != nil {
		logger.Errorf("rank chain: %v", err)
		os.Exit(1)
	}
	fmt.Printf("\n%s %s chain, expiry %s (%.1f DTE)\n", symbol, typ, oc.Expiration.Format("2006-01-02"), oc.DTE)
	report.WriteRankedTable(os.Stdout, scored)
}
