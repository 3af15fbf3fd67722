package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pairs-backtest/internal/analysis"
	"pairs-backtest/internal/backtest"
	"pairs-backtest/internal/config"
	"pairs-backtest/internal/data"
	"pairs-backtest/internal/metrics"
	"pairs-backtest/internal/model"
	"pairs-backtest/internal/util"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "rank":
		cmdRank(os.Args[2:])
	case "backtest":
		cmdBacktest(os.Args[2:])
	case "sweep":
		cmdSweep(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli rank     --data data/closes.csv [--config examples/config.yaml] [--from 2023-05-01 --to 2025-05-01] [--top 20]")
	fmt.Println("  cli backtest --data data/closes.csv --config examples/config.yaml [--s1 KO --s2 PEP] [--out results]")
	fmt.Println("  cli sweep    --data data/closes.csv --config examples/config.yaml --pairs KO/PEP,XOM/CVX --windows 5,10,20 --entries 1.5,2")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - rank scores every symbol pair by Pearson correlation of closes over the formation window")
	fmt.Println("  - backtest writes <s1>_<s2>_episodes.csv and <s1>_<s2>_ledger.csv to --out")
	fmt.Println("  - sweep runs every pair x window x entry combination concurrently")
}

// common holds the flags every subcommand shares.
type common struct {
	dataPath *string
	cfgPath  *string
	logLevel *string
}

func commonFlags(fs *flag.FlagSet) common {
	return common{
		dataPath: fs.String("data", "", "Path to the price panel (CSV or JSON); overrides data.panel_file"),
		cfgPath:  fs.String("config", "", "Path to YAML config (optional)"),
		logLevel: fs.String("log-level", "", "debug, info, warn, error; overrides log.level"),
	}
}

// load resolves config, logger and panel. A missing --config yields an all-defaults config.
func (c common) load() (*config.Config, zerolog.Logger, *model.PricePanel) {
	cfg := &config.Config{}
	if *c.cfgPath != "" {
		loaded, err := config.Load(*c.cfgPath)
		if err != nil {
			l := util.NewLogger("info")
			l.Fatal().Err(err).Str("config", *c.cfgPath).Msg("load config")
		}
		cfg = loaded
	} else {
		cfg.ApplyDefaults()
	}
	if *c.logLevel != "" {
		cfg.Log.Level = *c.logLevel
	}
	log := util.NewLogger(cfg.Log.Level)

	path := *c.dataPath
	if path == "" {
		path = cfg.Data.PanelFile
	}
	if path == "" {
		log.Fatal().Msg("--data (or data.panel_file) is required")
	}
	panel, err := data.LoadPanel(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("load panel")
	}
	log.Info().Str("path", path).Int("rows", panel.Len()).Int("symbols", panel.NumSymbols()).Msg("panel loaded")

	if cfg.Data.UniverseFile != "" {
		panel = restrictToUniverse(panel, cfg, log)
	}
	return cfg, log, panel
}

// restrictToUniverse keeps the constituents that were already in the index when the history starts.
func restrictToUniverse(panel *model.PricePanel, cfg *config.Config, log zerolog.Logger) *model.PricePanel {
	u, err := data.LoadUniverse(cfg.Data.UniverseFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Data.UniverseFile).Msg("load universe")
	}
	from, _, err := cfg.RankWindow(panel.LastDate())
	if err != nil {
		log.Fatal().Err(err).Msg("rank window")
	}
	symbols := data.FilterAddedBefore(u.Constituents, from)
	out := panel.Select(symbols)
	log.Info().Int("constituents", len(u.Constituents)).Int("kept", out.NumSymbols()).Time("added_before", from).Msg("universe applied")
	return out
}

func cmdRank(args []string) {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	c := commonFlags(fs)
	from := fs.String("from", "", "Formation window start (YYYY-MM-DD); default: months_back before the last date")
	to := fs.String("to", "", "Formation window end (YYYY-MM-DD); default: holdout_days before the last date")
	top := fs.Int("top", 0, "Number of pairs to keep (0 = rank.top_n)")
	show := fs.Int("show", 20, "Number of pairs to print")
	_ = fs.Parse(args)

	cfg, log, panel := c.load()
	if *from != "" {
		cfg.Rank.From = *from
	}
	if *to != "" {
		cfg.Rank.To = *to
	}
	if *top > 0 {
		cfg.Rank.TopN = *top
	}
	start, end, err := cfg.RankWindow(panel.LastDate())
	if err != nil {
		log.Fatal().Err(err).Msg("rank window")
	}

	t0 := time.Now()
	pairs, err := analysis.RankPairs(panel, start, end, cfg.Rank.TopN)
	if err != nil {
		log.Fatal().Err(err).Msg("rank pairs")
	}
	log.Info().Int("pairs", len(pairs)).Dur("duration", time.Since(t0)).Msg("ranked")

	fmt.Printf("formation window %s .. %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Printf("%-5s %-8s %-8s %-12s\n", "rank", "symbol1", "symbol2", "correlation")
	for i, p := range pairs {
		if i >= *show {
			break
		}
		fmt.Printf("%-5d %-8s %-8s %-12.6f\n", i+1, p.Symbol1, p.Symbol2, p.Correlation)
	}
}

func cmdBacktest(args []string) {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	c := commonFlags(fs)
	s1 := fs.String("s1", "", "First leg; overrides pair.symbol1")
	s2 := fs.String("s2", "", "Second leg; overrides pair.symbol2")
	window := fs.Int("window", 0, "Rolling window (0 = config)")
	entry := fs.Float64("entry", 0, "Entry |z| threshold (0 = config)")
	outDir := fs.String("out", "results", "Output directory for episode and ledger CSVs")
	_ = fs.Parse(args)

	cfg, log, panel := c.load()
	if *s1 != "" {
		cfg.Pair.Symbol1 = *s1
	}
	if *s2 != "" {
		cfg.Pair.Symbol2 = *s2
	}
	if *window > 0 {
		cfg.Strategy.Window = window
	}
	if *entry > 0 {
		cfg.Strategy.EntryThreshold = entry
	}
	req, err := cfg.BacktestRequest()
	if err != nil {
		log.Fatal().Err(err).Msg("build request")
	}
	if req.Symbol1 == "" || req.Symbol2 == "" {
		log.Fatal().Msg("a pair is required (--s1/--s2 or pair.symbol1/pair.symbol2)")
	}

	res, err := backtest.New(log).RunRequest(panel, req)
	if err != nil {
		log.Fatal().Err(err).Msg("backtest")
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("create output dir")
	}
	prefix := filepath.Join(*outDir, res.Symbol1+"_"+res.Symbol2)
	if err := backtest.WriteEpisodesCSV(prefix+"_episodes.csv", res.Symbol1, res.Symbol2, res.Episodes); err != nil {
		log.Fatal().Err(err).Msg("write episodes")
	}
	if err := backtest.WriteLedgerCSV(prefix+"_ledger.csv", res.Ledger); err != nil {
		log.Fatal().Err(err).Msg("write ledger")
	}

	s := analysis.Summarize(res)
	fmt.Printf("Pair %s/%s  %s .. %s  (%d rows)\n", s.Symbol1, s.Symbol2,
		s.Start.Format("2006-01-02"), s.End.Format("2006-01-02"), s.Rows)
	fmt.Printf("Window=%d Entry=%.2f Neutral=%.2f Commission=%s Slippage=%.1fbps\n",
		res.Params.Window, res.Params.EntryThreshold, res.Params.NeutralThreshold, res.Costs.Commission, res.Costs.SlippageBps)
	fmt.Printf("Episodes=%d Trades=%d Wins=%d (%.0f%%)\n", s.Episodes, s.Trades, s.Wins, 100*s.WinRate)
	fmt.Printf("Margin $%.2f -> $%.2f (%+.2f%%), max drawdown %.2f%%, commission $%.2f\n",
		s.MarginInit, s.FinalMargin, 100*s.Return, 100*s.MaxDrawdown, s.TotalCommission)
	fmt.Printf("Wrote %s_episodes.csv and %s_ledger.csv\n", prefix, prefix)
}

func cmdSweep(args []string) {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	c := commonFlags(fs)
	pairsFlag := fs.String("pairs", "", "Comma-separated pairs like KO/PEP (default: the configured pair)")
	topPairs := fs.Int("top-pairs", 0, "Instead of --pairs, sweep the N most correlated pairs")
	windows := fs.String("windows", "", "Comma-separated rolling windows (default: config)")
	entries := fs.String("entries", "", "Comma-separated entry thresholds (default: config)")
	workers := fs.Int("workers", 0, "Concurrent backtests (0 = GOMAXPROCS)")
	metricsAddr := fs.String("metrics-addr", "", "Expose Prometheus metrics on this address while sweeping (e.g. :9100)")
	_ = fs.Parse(args)

	cfg, log, panel := c.load()
	if *metricsAddr != "" {
		srv := metrics.Serve(*metricsAddr)
		defer srv.Close()
		log.Info().Str("addr", *metricsAddr).Msg("serving metrics")
	}
	base, err := cfg.BacktestRequest()
	if err != nil {
		log.Fatal().Err(err).Msg("build request")
	}

	var pairs [][2]string
	switch {
	case *topPairs > 0:
		start, end, err := cfg.RankWindow(panel.LastDate())
		if err != nil {
			log.Fatal().Err(err).Msg("rank window")
		}
		ranked, err := analysis.RankPairs(panel, start, end, *topPairs)
		if err != nil {
			log.Fatal().Err(err).Msg("rank pairs")
		}
		for _, p := range ranked {
			pairs = append(pairs, [2]string{p.Symbol1, p.Symbol2})
		}
	case *pairsFlag != "":
		for _, p := range splitList(*pairsFlag) {
			legs := strings.SplitN(p, "/", 2)
			if len(legs) != 2 {
				log.Fatal().Str("pair", p).Msg("pairs must look like A/B")
			}
			pairs = append(pairs, [2]string{legs[0], legs[1]})
		}
	default:
		pairs = append(pairs, [2]string{base.Symbol1, base.Symbol2})
	}

	ws := []int{base.Params.Window}
	if *windows != "" {
		ws = nil
		for _, s := range splitList(*windows) {
			ws = append(ws, int(mustNum(s, log)))
		}
	}
	es := []float64{base.Params.EntryThreshold}
	if *entries != "" {
		es = nil
		for _, s := range splitList(*entries) {
			es = append(es, mustNum(s, log))
		}
	}

	var reqs []backtest.Request
	for _, p := range pairs {
		for _, w := range ws {
			for _, e := range es {
				r := base
				r.Symbol1, r.Symbol2 = p[0], p[1]
				r.Params.Window = w
				r.Params.EntryThreshold = e
				reqs = append(reqs, r)
			}
		}
	}

	t0 := time.Now()
	results, err := backtest.New(log.Level(zerolog.WarnLevel)).Sweep(context.Background(), panel, reqs, *workers)
	if err != nil {
		log.Fatal().Err(err).Msg("sweep")
	}
	log.Info().Int("runs", len(results)).Dur("duration", time.Since(t0)).Msg("sweep complete")

	fmt.Printf("%-8s %-8s %-6s %-6s %-7s %-8s %-12s %-9s\n", "symbol1", "symbol2", "window", "entry", "trades", "win%", "final$", "return%")
	for _, r := range results {
		if r.Err != nil {
			metrics.BacktestsTotal.WithLabelValues("error").Inc()
			fmt.Printf("%-8s %-8s %-6d %-6.2f error: %v\n", r.Request.Symbol1, r.Request.Symbol2, r.Request.Params.Window, r.Request.Params.EntryThreshold, r.Err)
			continue
		}
		metrics.BacktestsTotal.WithLabelValues("ok").Inc()
		s := analysis.Summarize(r.Result)
		fmt.Printf("%-8s %-8s %-6d %-6.2f %-7d %-8.1f %-12.2f %-9.2f\n",
			s.Symbol1, s.Symbol2, r.Request.Params.Window, r.Request.Params.EntryThreshold,
			s.Trades, 100*s.WinRate, s.FinalMargin, 100*s.Return)
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mustNum(s string, log zerolog.Logger) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Fatal().Str("value", s).Msg("not a number")
	}
	return v
}
